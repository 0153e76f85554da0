package contract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressEntry is one line of a curated address list: the contract address,
// the chain it lives on, and an optional protocol label.
type AddressEntry struct {
	Address  string
	ChainID  int64
	Protocol string
}

// ParseAddressList reads a curated address list in the line-oriented format
// "address,chain_id,protocol". '#' introduces a comment (full-line or
// trailing) and blank lines are skipped. Malformed entries are an error: a
// bad list aborts the run before any network work starts.
func ParseAddressList(r io.Reader) ([]AddressEntry, error) {
	var entries []AddressEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry, err := parseAddressLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read address list: %w", err)
	}

	return entries, nil
}

// LoadAddressList reads a curated address list from a file.
func LoadAddressList(path string) ([]AddressEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open address list: %w", err)
	}
	defer f.Close()

	entries, err := ParseAddressList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func parseAddressLine(line string) (AddressEntry, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return AddressEntry{}, fmt.Errorf("expected address,chain_id[,protocol], got %q", line)
	}

	addr, err := NormalizeAddress(parts[0])
	if err != nil {
		return AddressEntry{}, err
	}

	chainID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || chainID <= 0 {
		return AddressEntry{}, fmt.Errorf("invalid chain_id %q", parts[1])
	}

	entry := AddressEntry{Address: addr, ChainID: chainID}
	if len(parts) > 2 {
		entry.Protocol = parts[2]
	}
	return entry, nil
}

// NormalizeAddress validates a hex contract address and lowercases it so that
// (chain_id, address) lookups are case-insensitive.
func NormalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("invalid address %q", addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}
