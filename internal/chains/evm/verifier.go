// Package evm verifies listing fee payments on Ethereum and BNB Smart
// Chain through Etherscan-compatible transaction lookup APIs.
package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trenddesk/trenddesk/internal/chains"
)

// Verifier implements chains.Verifier for one EVM-compatible chain.
// ETH and BNB each get their own instance pointing at the matching
// scan API endpoint; the credential is shared.
type Verifier struct {
	chain      string
	endpoint   string
	apiKey     string
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

// New creates an EVM payment verifier for the given chain code.
func New(chain, endpoint, apiKey string, timeout time.Duration, opts ...Option) *Verifier {
	v := &Verifier{
		chain:    chain,
		endpoint: endpoint,
		apiKey:   apiKey,
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
	return v.chain
}

// DisplayName returns a human-readable name
func (v *Verifier) DisplayName() string {
	switch v.chain {
	case chains.ChainBNB:
		return "BNB Smart Chain"
	default:
		return "Ethereum"
	}
}

// rpcResponse is the proxy envelope around eth_getTransactionByHash
type rpcResponse struct {
	Result *txResult `json:"result"`
}

type txResult struct {
	To    string `json:"to"`
	Value string `json:"value"`
}

// VerifyPayment checks that txRef exists, pays the expected wallet and
// carries a nonzero value. No USD equivalence is checked: any nonzero
// transfer to the right address passes.
func (v *Verifier) VerifyPayment(ctx context.Context, txRef, wallet string) *chains.Result {
	if v.apiKey == "" {
		return &chains.Result{
			Code:   chains.CodeConfig,
			Reason: "missing ETHERSCAN_API_KEY; on-chain verification for ETH/BNB is disabled",
		}
	}

	query := url.Values{}
	query.Set("module", "proxy")
	query.Set("action", "eth_getTransactionByHash")
	query.Set("txhash", txRef)
	query.Set("apikey", v.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return transportFailure(err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &chains.Result{
			Code:   chains.CodeTransport,
			Reason: fmt.Sprintf("transaction lookup failed with status %d", resp.StatusCode),
		}
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return transportFailure(err)
	}
	if rpc.Result == nil {
		return &chains.Result{
			Code:   chains.CodeNotFound,
			Reason: "transaction not found",
		}
	}

	// Addresses compare case-insensitively; checksummed and lowercase
	// forms of the same address must both pass.
	if common.HexToAddress(rpc.Result.To) != common.HexToAddress(wallet) {
		return &chains.Result{
			Code:   chains.CodeMismatch,
			Reason: fmt.Sprintf("tx recipient %s does not match expected %s", rpc.Result.To, wallet),
		}
	}

	if parseHexValue(rpc.Result.Value).Sign() <= 0 {
		return &chains.Result{
			Code:   chains.CodeZeroValue,
			Reason: "transaction value is zero",
		}
	}

	return &chains.Result{
		Verified: true,
		Reason:   "transaction found and sent to expected address",
	}
}

func transportFailure(err error) *chains.Result {
	return &chains.Result{
		Code:   chains.CodeTransport,
		Reason: fmt.Sprintf("transaction lookup error: %v", err),
	}
}

// parseHexValue decodes a hex-encoded wei amount. Malformed values
// decode to zero, which rejects the payment.
func parseHexValue(hex string) *big.Int {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	if hex == "" {
		return new(big.Int)
	}
	value, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return new(big.Int)
	}
	return value
}
