// Package solana verifies listing fee payments on Solana through the
// getTransaction JSON-RPC method.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/trenddesk/trenddesk/internal/chains"
)

// Verifier implements chains.Verifier for Solana.
//
// Strict matching requires the receiving wallet among the
// transaction's account keys. With the lenient flag set, a
// transaction that merely exists counts as verified.
type Verifier struct {
	rpcURL     string
	lenient    bool
	httpClient *http.Client
}

// Option configures a Verifier
type Option func(*Verifier)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		v.httpClient = c
	}
}

// New creates a Solana payment verifier.
func New(rpcURL string, lenient bool, timeout time.Duration, opts ...Option) *Verifier {
	v := &Verifier{
		rpcURL:  rpcURL,
		lenient: lenient,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Chain returns the chain code this verifier handles
func (v *Verifier) Chain() string {
	return chains.ChainSOL
}

// DisplayName returns a human-readable name
func (v *Verifier) DisplayName() string {
	return "Solana"
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result *txResult `json:"result"`
}

type txResult struct {
	Transaction struct {
		Message struct {
			AccountKeys []accountKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// accountKey decodes both encodings getTransaction uses for account
// keys: a bare base58 string or an object with a pubkey field.
type accountKey struct {
	Pubkey string
}

func (k *accountKey) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &k.Pubkey)
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Pubkey = obj.Pubkey
	return nil
}

// VerifyPayment looks up the transaction and confirms the expected
// wallet appears among its account keys.
func (v *Verifier) VerifyPayment(ctx context.Context, txRef, wallet string) *chains.Result {
	if v.rpcURL == "" {
		return &chains.Result{
			Code:   chains.CodeConfig,
			Reason: "missing SOLANA_RPC_URL; on-chain verification for SOL is disabled",
		}
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTransaction",
		Params:  []any{txRef, map[string]string{"encoding": "jsonParsed"}},
	})
	if err != nil {
		return transportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return transportFailure(err)
	}
	if rpc.Result == nil {
		return &chains.Result{
			Code:   chains.CodeNotFound,
			Reason: "transaction not found on Solana RPC",
		}
	}

	for _, key := range rpc.Result.Transaction.Message.AccountKeys {
		if key.Pubkey == wallet {
			return &chains.Result{
				Verified: true,
				Reason:   "expected recipient present in transaction account keys",
			}
		}
	}

	if v.lenient {
		return &chains.Result{
			Verified: true,
			Reason:   "transaction found; recipient not confirmed, inspect manually",
		}
	}
	return &chains.Result{
		Code:   chains.CodeMismatch,
		Reason: fmt.Sprintf("expected recipient %s not found among transaction account keys", wallet),
	}
}

func transportFailure(err error) *chains.Result {
	return &chains.Result{
		Code:   chains.CodeTransport,
		Reason: fmt.Sprintf("RPC call error: %v", err),
	}
}
