// Package dataset reads and writes contract record datasets as CSV files.
// Values are quoted by the encoder so multi-line source code and embedded
// quotes round-trip; newlines are LF-canonical.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aomi-labs/db-master/pkg/contract"
)

// Header is the fixed column order of a dataset file.
var Header = []string{
	"address",
	"chain",
	"chain_id",
	"name",
	"symbol",
	"source_code",
	"abi",
	"is_proxy",
	"implementation_address",
	"protocol",
	"contract_type",
	"version",
}

// ErrMalformedRow marks dataset rows missing their natural key. Such rows
// are surfaced as errors, never silently dropped.
var ErrMalformedRow = errors.New("malformed dataset row")

// Write writes records to path, replacing any existing file.
func Write(path string, records []contract.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	if err := writeAll(f, records, true); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Append appends records to an existing dataset file, creating it with a
// header first when it does not exist.
func Append(path string, records []contract.Record) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		return Write(path, records)
	}
	if statErr != nil {
		return fmt.Errorf("failed to stat dataset file: %w", statErr)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	if err := writeAll(f, records, false); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Read loads a fully materialized dataset from path.
func Read(path string) ([]contract.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	records, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadFrom decodes a dataset from r. The header row is validated against
// Header before any record is decoded.
func ReadFrom(r io.Reader) ([]contract.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty dataset file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected dataset header: column %d is %q, want %q", i, header[i], col)
		}
	}

	var records []contract.Record
	row := 1
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		rec, err := decodeRow(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func writeAll(w io.Writer, records []contract.Record, withHeader bool) error {
	cw := csv.NewWriter(w)

	if withHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i := range records {
		if err := cw.Write(encodeRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write record %s: %w", records[i].Address, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func encodeRow(r *contract.Record) []string {
	return []string{
		r.Address,
		r.Chain,
		strconv.FormatInt(r.ChainID, 10),
		r.Name,
		r.Symbol,
		r.SourceCode,
		r.ABI,
		strconv.FormatBool(r.IsProxy),
		r.ImplementationAddress,
		r.Protocol,
		r.ContractType,
		r.Version,
	}
}

func decodeRow(fields []string) (contract.Record, error) {
	if fields[0] == "" {
		return contract.Record{}, fmt.Errorf("%w: missing address", ErrMalformedRow)
	}
	if fields[2] == "" {
		return contract.Record{}, fmt.Errorf("%w: missing chain_id", ErrMalformedRow)
	}
	chainID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return contract.Record{}, fmt.Errorf("%w: invalid chain_id %q", ErrMalformedRow, fields[2])
	}

	isProxy := false
	if fields[7] != "" {
		isProxy, err = strconv.ParseBool(fields[7])
		if err != nil {
			return contract.Record{}, fmt.Errorf("%w: invalid is_proxy %q", ErrMalformedRow, fields[7])
		}
	}

	name := fields[3]
	if name == "" {
		name = contract.UnknownName
	}

	return contract.Record{
		Address:               fields[0],
		Chain:                 fields[1],
		ChainID:               chainID,
		Name:                  name,
		Symbol:                fields[4],
		SourceCode:            fields[5],
		ABI:                   fields[6],
		IsProxy:               isProxy,
		ImplementationAddress: fields[8],
		Protocol:              fields[9],
		ContractType:          fields[10],
		Version:               fields[11],
	}, nil
}
