// Package chains provides the payment verifier interface and registry
// for the blockchains a listing fee can be paid on.
package chains

import "context"

// Chain codes as stored on a project.
const (
	ChainSOL  = "SOL"
	ChainETH  = "ETH"
	ChainBNB  = "BNB"
	ChainNone = "NONE"
)

// Code classifies why a verification attempt did not pass. Verified
// results carry an empty code.
type Code string

const (
	// CodeConfig means a required credential or endpoint is missing.
	CodeConfig Code = "config_error"
	// CodeNotFound means the referenced transaction does not exist.
	CodeNotFound Code = "not_found"
	// CodeMismatch means the transaction exists but the recipient does
	// not match the expected wallet.
	CodeMismatch Code = "mismatch"
	// CodeZeroValue means the transaction transfers nothing.
	CodeZeroValue Code = "zero_value"
	// CodeTransport means the RPC call failed or timed out. The
	// attempt is terminal; callers may re-invoke manually.
	CodeTransport Code = "transport_error"
	// CodeManual means no automated verification path exists for the
	// chain.
	CodeManual Code = "manual_required"
)

// Result is the outcome of a single verification attempt. Network and
// parse failures are folded into it at the verifier boundary; they
// never surface as errors.
type Result struct {
	Verified bool
	Code     Code
	Reason   string
}

// Verifier checks whether a claimed transaction pays the listing fee
// to the expected wallet on one chain.
type Verifier interface {
	// Chain returns the chain code this verifier handles.
	Chain() string
	DisplayName() string
	// VerifyPayment inspects txRef against the expected receiving
	// wallet. The reason string is suitable for direct display.
	VerifyPayment(ctx context.Context, txRef, wallet string) *Result
}

// Registry holds the registered per-chain verifiers
type Registry struct {
	verifiers map[string]Verifier
}

// NewRegistry creates a new verifier registry
func NewRegistry() *Registry {
	return &Registry{
		verifiers: make(map[string]Verifier),
	}
}

// Register adds a verifier to the registry
func (r *Registry) Register(v Verifier) {
	r.verifiers[v.Chain()] = v
}

// Get retrieves a verifier by chain code
func (r *Registry) Get(chain string) (Verifier, bool) {
	v, ok := r.verifiers[chain]
	return v, ok
}

// List returns all registered verifiers
func (r *Registry) List() []Verifier {
	verifiers := make([]Verifier, 0, len(r.verifiers))
	for _, v := range r.verifiers {
		verifiers = append(verifiers, v)
	}
	return verifiers
}
