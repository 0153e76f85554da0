// Package contract holds the domain model for verified contract records and
// the curated address lists they are fetched from.
package contract

import (
	"fmt"
	"strings"
)

// UnknownName is the sentinel used when a contract's name cannot be resolved.
const UnknownName = "Unknown"

// Record represents the domain model for a verified contract.
// Optional fields use the empty string as "absent"; the store maps them to
// SQL NULL.
type Record struct {
	Address               string
	Chain                 string
	ChainID               int64
	Name                  string
	Symbol                string
	SourceCode            string
	ABI                   string
	IsProxy               bool
	ImplementationAddress string
	Protocol              string
	ContractType          string
	Version               string
}

// Key returns the natural key of the record.
func (r *Record) Key() string {
	return fmt.Sprintf("%d:%s", r.ChainID, r.Address)
}

// ChainName maps a chain ID to its human-readable network name.
func ChainName(chainID int64) string {
	switch chainID {
	case 1:
		return "ethereum"
	case 10:
		return "optimism"
	case 42161:
		return "arbitrum"
	case 8453:
		return "base"
	case 137:
		return "polygon"
	default:
		return fmt.Sprintf("chain_%d", chainID)
	}
}

// DetectType classifies a contract by keywords in its name. Returns "" when
// no known keyword matches.
func DetectType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "proxy"):
		return "Proxy"
	case strings.Contains(lower, "router"):
		return "Router"
	case strings.Contains(lower, "factory"):
		return "Factory"
	case strings.Contains(lower, "pool"):
		return "Pool"
	case strings.Contains(lower, "vault"):
		return "Vault"
	case strings.Contains(lower, "token"):
		return "Token"
	default:
		return ""
	}
}
