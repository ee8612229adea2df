// Package validation provides input validation for trenddesk.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"github.com/trenddesk/trenddesk/internal/chains"
)

// EVM transaction hashes: 0x followed by 64 hex chars
var evmTxHashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Project symbols: uppercase alphanumeric tickers, 1-12 chars
var symbolRegex = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

// ValidateChain validates a chain code
func ValidateChain(chain string) error {
	switch chain {
	case chains.ChainSOL, chains.ChainETH, chains.ChainBNB, chains.ChainNone:
		return nil
	}
	return fmt.Errorf("unknown chain %q: must be one of SOL, ETH, BNB, NONE", chain)
}

// ValidateProjectName validates a project name
func ValidateProjectName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("project name cannot be empty")
	}
	if len(name) > 100 {
		return errors.New("project name too long (max 100 chars)")
	}
	return nil
}

// ValidateSymbol validates a project ticker symbol
func ValidateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return errors.New("invalid symbol: must be 1-12 uppercase alphanumeric characters")
	}
	return nil
}

// ValidateTxRef validates the format of a transaction reference for a
// chain before any RPC call is spent on it.
func ValidateTxRef(chain, txRef string) error {
	switch chain {
	case chains.ChainETH, chains.ChainBNB:
		if !evmTxHashRegex.MatchString(txRef) {
			return errors.New("invalid transaction hash: expected 0x followed by 64 hex characters")
		}
	case chains.ChainSOL:
		if _, err := solana.SignatureFromBase58(txRef); err != nil {
			return fmt.Errorf("invalid transaction signature: %v", err)
		}
	}
	return nil
}

// ValidateWalletAddress validates a receiving wallet address for a chain
func ValidateWalletAddress(chain, addr string) error {
	switch chain {
	case chains.ChainETH, chains.ChainBNB:
		if !common.IsHexAddress(addr) {
			return errors.New("invalid EVM address")
		}
	case chains.ChainSOL:
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("invalid Solana address: %v", err)
		}
	}
	return nil
}
