package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenddesk/trenddesk/internal/chains"
	"github.com/trenddesk/trenddesk/internal/storage"
)

const validEthTx = "0x4c5a0b2e1d3f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b"

// mockProjects implements ProjectStore for testing
type mockProjects struct {
	projects      map[string]*storage.Project
	markListedErr error
	listedCalls   int
}

func newMockProjects() *mockProjects {
	return &mockProjects{projects: make(map[string]*storage.Project)}
}

func (m *mockProjects) GetProject(ctx context.Context, id string) (*storage.Project, error) {
	if p, ok := m.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *mockProjects) MarkListed(ctx context.Context, id string) error {
	if m.markListedErr != nil {
		return m.markListedErr
	}
	m.listedCalls++
	if p, ok := m.projects[id]; ok {
		p.PaymentVerified = true
		p.Listed = true
	}
	return nil
}

// mockVerifier implements chains.Verifier for testing
type mockVerifier struct {
	chain  string
	result *chains.Result
}

func (m *mockVerifier) Chain() string       { return m.chain }
func (m *mockVerifier) DisplayName() string { return m.chain }

func (m *mockVerifier) VerifyPayment(ctx context.Context, txRef, wallet string) *chains.Result {
	return m.result
}

// mockPublisher implements Publisher for testing
type mockPublisher struct {
	err   error
	calls int
	last  *storage.Project
}

func (m *mockPublisher) PublishListing(ctx context.Context, p *storage.Project) error {
	if m.err != nil {
		return m.err
	}
	m.calls++
	m.last = p
	return nil
}

func testProject(chain string) *storage.Project {
	return &storage.Project{
		ID:          "bitmart_1724900000",
		Name:        "Bitmart",
		Symbol:      "BMX",
		Chain:       chain,
		SubmittedBy: "alice",
		SubmittedAt: time.Date(2024, 8, 29, 0, 0, 0, 0, time.UTC),
	}
}

func ethWallets() map[string]string {
	return map[string]string{
		chains.ChainETH: "0x1234567890123456789012345678901234567890",
	}
}

func TestVerify_ProjectNotFound(t *testing.T) {
	svc := NewService(newMockProjects(), chains.NewRegistry(), ethWallets(), &mockPublisher{})

	result, err := svc.Verify(context.Background(), VerifyRequest{
		ProjectID: "missing_1724900000",
		TxRef:     validEthTx,
	})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestVerify_AlreadyListed(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	p.PaymentVerified = true
	p.Listed = true
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}})
	pub := &mockPublisher{}
	svc := NewService(store, registry, ethWallets(), pub)

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	require.NoError(t, err)
	assert.Equal(t, StatusVerified, result.Status)
	assert.True(t, result.Verified)
	assert.True(t, result.Listed)
	// Idempotent: no second save, no second announcement
	assert.Equal(t, 0, store.listedCalls)
	assert.Equal(t, 0, pub.calls)
}

func TestVerify_NoVerifierForChain(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainNone)
	store.projects[p.ID] = p

	svc := NewService(store, chains.NewRegistry(), ethWallets(), &mockPublisher{})

	// txRef is not even validated when no verifier exists
	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: "anything"})

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Equal(t, chains.CodeManual, result.Code)
	assert.False(t, result.Listed)
}

func TestVerify_InvalidTxRef(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}})
	svc := NewService(store, registry, ethWallets(), &mockPublisher{})

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: "not-a-hash"})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrInvalidTxRef))
}

func TestVerify_MissingWalletConfig(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}})
	svc := NewService(store, registry, map[string]string{}, &mockPublisher{})

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Equal(t, chains.CodeConfig, result.Code)
}

func TestVerify_MalformedWalletConfig(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	verifier := &mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}}
	registry.Register(verifier)
	pub := &mockPublisher{}
	svc := NewService(store, registry, map[string]string{chains.ChainETH: "not-an-address"}, pub)

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Equal(t, chains.CodeConfig, result.Code)
	assert.Contains(t, result.Reason, "invalid")
	// The broken wallet never reaches the verifier
	assert.Equal(t, 0, store.listedCalls)
	assert.Equal(t, 0, pub.calls)
}

func TestVerify_ZeroValuePayment(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{
		Code:   chains.CodeZeroValue,
		Reason: "transaction transfers no value",
	}})
	pub := &mockPublisher{}
	svc := NewService(store, registry, ethWallets(), pub)

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Equal(t, chains.CodeZeroValue, result.Code)
	assert.False(t, result.Listed)
	assert.Equal(t, 0, store.listedCalls)
	assert.Equal(t, 0, pub.calls)
}

func TestVerify_Success(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{
		Verified: true,
		Reason:   "payment of 0.05 ETH confirmed",
	}})
	pub := &mockPublisher{}
	svc := NewService(store, registry, ethWallets(), pub)

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	require.NoError(t, err)
	assert.Equal(t, StatusVerified, result.Status)
	assert.True(t, result.Verified)
	assert.True(t, result.Listed)
	assert.True(t, result.Published)
	assert.Equal(t, 1, store.listedCalls)
	require.Equal(t, 1, pub.calls)
	assert.True(t, pub.last.Listed)
	assert.True(t, pub.last.PaymentVerified)
}

func TestVerify_SuccessIsIdempotent(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}})
	pub := &mockPublisher{}
	svc := NewService(store, registry, ethWallets(), pub)

	_, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})
	require.NoError(t, err)
	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})
	require.NoError(t, err)

	assert.True(t, result.Verified)
	// Announced exactly once across both attempts
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, 1, store.listedCalls)
}

func TestVerify_MarkListedFailureIsFatal(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p
	store.markListedErr = errors.New("disk full")

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}})
	pub := &mockPublisher{}
	svc := NewService(store, registry, ethWallets(), pub)

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	assert.Nil(t, result)
	assert.Error(t, err)
	// Never announced without durable listing state
	assert.Equal(t, 0, pub.calls)
}

func TestVerify_PublishFailureDoesNotRevertListing(t *testing.T) {
	store := newMockProjects()
	p := testProject(chains.ChainETH)
	store.projects[p.ID] = p

	registry := chains.NewRegistry()
	registry.Register(&mockVerifier{chain: chains.ChainETH, result: &chains.Result{Verified: true}})
	pub := &mockPublisher{err: errors.New("telegram: 502")}
	svc := NewService(store, registry, ethWallets(), pub)

	result, err := svc.Verify(context.Background(), VerifyRequest{ProjectID: p.ID, TxRef: validEthTx})

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.True(t, result.Listed)
	assert.False(t, result.Published)
	assert.Contains(t, result.PublishError, "telegram")
	assert.Equal(t, 1, store.listedCalls)
}
