package etherscan

import (
	"errors"
	"fmt"
)

// Fetch failure kinds. NotVerified is terminal for an address; Transport and
// Decode are retried before being reported.
var (
	ErrNotVerified = errors.New("contract source not verified")
	ErrTransport   = errors.New("transport error")
	ErrDecode      = errors.New("malformed response")
)

// FetchError describes a failed fetch for a single address. It is always
// returned as a value; a bad address never takes down the run.
type FetchError struct {
	Address string
	ChainID int64
	Kind    error // one of ErrNotVerified, ErrTransport, ErrDecode
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (chain %d): %s: %s", e.Address, e.ChainID, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s (chain %d): %s", e.Address, e.ChainID, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Kind }

func newFetchError(address string, chainID int64, kind, err error) *FetchError {
	return &FetchError{Address: address, ChainID: chainID, Kind: kind, Err: err}
}

// IsNotVerified reports whether err represents an unverified or unknown
// contract.
func IsNotVerified(err error) bool {
	return errors.Is(err, ErrNotVerified)
}
