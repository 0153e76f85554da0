package contractstore

import (
	"github.com/uptrace/bun"

	"github.com/aomi-labs/db-master/pkg/contract"
)

// ContractDao is a data access object that maps directly to the 'contracts'
// table in PostgreSQL. (chain_id, address) is the natural key, enforced by a
// unique index.
type ContractDao struct {
	bun.BaseModel         `bun:"table:contracts,alias:c"`
	ID                    int64   `bun:"id,pk,autoincrement"`
	Address               string  `bun:"address,notnull,type:varchar(42)"`
	Chain                 string  `bun:"chain,notnull,type:varchar(64)"`
	ChainID               int64   `bun:"chain_id,notnull"`
	Name                  string  `bun:"name,notnull,type:varchar(255)"`
	Symbol                *string `bun:"symbol,type:varchar(64)"`
	SourceCode            string  `bun:"source_code,notnull,type:text"`
	ABI                   string  `bun:"abi,notnull,type:text"`
	IsProxy               bool    `bun:"is_proxy,notnull,default:false"`
	ImplementationAddress *string `bun:"implementation_address,type:varchar(42)"`
	Protocol              *string `bun:"protocol,type:varchar(128)"`
	ContractType          *string `bun:"contract_type,type:varchar(64)"`
	Version               *string `bun:"version,type:varchar(64)"`
	CreatedAt             int64   `bun:"created_at,notnull"`
	UpdatedAt             int64   `bun:"updated_at,notnull"`
}

// toContractDao converts a contract.Record to ContractDao. Empty optional
// fields become NULL so the upsert's COALESCE merge leaves stored values
// untouched. source_code and abi are NOT NULL columns; absent values are
// substituted with "" and "[]" instead of rejecting the record.
func toContractDao(rec *contract.Record, now int64) *ContractDao {
	dao := &ContractDao{
		Address:    rec.Address,
		Chain:      rec.Chain,
		ChainID:    rec.ChainID,
		Name:       rec.Name,
		SourceCode: rec.SourceCode,
		ABI:        rec.ABI,
		IsProxy:    rec.IsProxy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if dao.Name == "" {
		dao.Name = contract.UnknownName
	}
	if dao.ABI == "" {
		dao.ABI = "[]"
	}
	if rec.Symbol != "" {
		dao.Symbol = &rec.Symbol
	}
	if rec.ImplementationAddress != "" {
		dao.ImplementationAddress = &rec.ImplementationAddress
	}
	if rec.Protocol != "" {
		dao.Protocol = &rec.Protocol
	}
	if rec.ContractType != "" {
		dao.ContractType = &rec.ContractType
	}
	if rec.Version != "" {
		dao.Version = &rec.Version
	}

	return dao
}

// toRecord converts a ContractDao to contract.Record.
func toRecord(dao *ContractDao) *contract.Record {
	rec := &contract.Record{
		Address:    dao.Address,
		Chain:      dao.Chain,
		ChainID:    dao.ChainID,
		Name:       dao.Name,
		SourceCode: dao.SourceCode,
		ABI:        dao.ABI,
		IsProxy:    dao.IsProxy,
	}

	if dao.Symbol != nil {
		rec.Symbol = *dao.Symbol
	}
	if dao.ImplementationAddress != nil {
		rec.ImplementationAddress = *dao.ImplementationAddress
	}
	if dao.Protocol != nil {
		rec.Protocol = *dao.Protocol
	}
	if dao.ContractType != nil {
		rec.ContractType = *dao.ContractType
	}
	if dao.Version != nil {
		rec.Version = *dao.Version
	}

	return rec
}
