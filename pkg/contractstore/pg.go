// Package contractstore persists contract records in PostgreSQL with
// idempotent batch upserts keyed on (chain_id, address).
package contractstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/aomi-labs/db-master/pkg/contract"
)

var ErrContractNotFound = errors.New("contract not found")

// BatchStats counts the outcome of one upsert batch.
type BatchStats struct {
	Inserted int
	Updated  int
}

type pgStore struct {
	db  *bun.DB
	now func() int64
}

// NewStore creates a new postgres implementation of the contract store.
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db, now: func() int64 { return time.Now().Unix() }}
}

// UpsertBatch writes one batch of records in a single transaction. Records
// with a new (chain_id, address) are inserted; on conflict the non-null
// incoming fields overwrite the stored row while absent optional fields keep
// their stored values. created_at is set only on insert, updated_at is
// refreshed on every conflict. Re-running the same batch leaves the store
// unchanged apart from updated_at.
func (s *pgStore) UpsertBatch(ctx context.Context, records []contract.Record) (BatchStats, error) {
	var stats BatchStats
	if len(records) == 0 {
		return stats, nil
	}

	now := s.now()
	deduped := dedupeByKey(records)
	daos := make([]*ContractDao, len(deduped))
	for i := range deduped {
		daos[i] = toContractDao(&deduped[i], now)
	}

	var inserted []bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&daos).
			On("CONFLICT (chain_id, address) DO UPDATE").
			Set("chain = EXCLUDED.chain").
			Set("name = EXCLUDED.name").
			Set("source_code = EXCLUDED.source_code").
			Set("abi = EXCLUDED.abi").
			Set("is_proxy = EXCLUDED.is_proxy").
			Set("symbol = COALESCE(EXCLUDED.symbol, c.symbol)").
			Set("implementation_address = COALESCE(EXCLUDED.implementation_address, c.implementation_address)").
			Set("protocol = COALESCE(EXCLUDED.protocol, c.protocol)").
			Set("contract_type = COALESCE(EXCLUDED.contract_type, c.contract_type)").
			Set("version = COALESCE(EXCLUDED.version, c.version)").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("(xmax = 0)").
			Exec(ctx, &inserted)
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("failed to upsert contract batch: %w", err)
	}

	for _, isInsert := range inserted {
		if isInsert {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

// GetContract returns the stored record for a (chain_id, address) pair.
func (s *pgStore) GetContract(ctx context.Context, chainID int64, address string) (*contract.Record, error) {
	dao := new(ContractDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("chain_id = ?", chainID).
		Where("address = ?", address).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return toRecord(dao), nil
}

// CountContracts returns the number of stored contracts.
func (s *pgStore) CountContracts(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().
		Model((*ContractDao)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return count, nil
}

// ListContracts returns all stored records, ordered by chain and address.
func (s *pgStore) ListContracts(ctx context.Context) ([]*contract.Record, error) {
	var daos []ContractDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("chain_id ASC", "address ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	records := make([]*contract.Record, len(daos))
	for i := range daos {
		records[i] = toRecord(&daos[i])
	}
	return records, nil
}

// dedupeByKey keeps the last record per (chain_id, address). Postgres rejects
// an ON CONFLICT DO UPDATE that touches the same row twice in one statement.
func dedupeByKey(records []contract.Record) []contract.Record {
	index := make(map[string]int, len(records))
	out := make([]contract.Record, 0, len(records))
	for i := range records {
		key := records[i].Key()
		if pos, seen := index[key]; seen {
			out[pos] = records[i]
			continue
		}
		index[key] = len(out)
		out = append(out, records[i])
	}
	return out
}
