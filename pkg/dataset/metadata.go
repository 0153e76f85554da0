package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aomi-labs/db-master/pkg/contract"
)

// Metadata CSV column positions. The metadata export carries the contract
// columns without source_code/abi:
// address,chain,chain_id,name,symbol,is_proxy,implementation_address,protocol,contract_type,version,created_at,updated_at
const (
	metaColAddress  = 0
	metaColChainID  = 2
	metaColProtocol = 7
)

// ReadMetadataAddresses extracts fetchable address entries from a curated
// metadata CSV. Rows without a valid hex address are skipped; the metadata
// export routinely carries placeholder rows.
func ReadMetadataAddresses(path string) ([]contract.AddressEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata csv: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	// header
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("%s: failed to read metadata header: %w", path, err)
	}

	var entries []contract.AddressEntry
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(fields) <= metaColAddress {
			continue
		}

		addr, err := contract.NormalizeAddress(fields[metaColAddress])
		if err != nil {
			continue
		}

		entry := contract.AddressEntry{Address: addr, ChainID: 1}
		if len(fields) > metaColChainID {
			if chainID, err := strconv.ParseInt(fields[metaColChainID], 10, 64); err == nil && chainID > 0 {
				entry.ChainID = chainID
			}
		}
		if len(fields) > metaColProtocol {
			entry.Protocol = fields[metaColProtocol]
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
