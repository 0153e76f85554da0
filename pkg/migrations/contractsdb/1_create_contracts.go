package contractsdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/aomi-labs/db-master/pkg/contractstore"
	mghelper "github.com/aomi-labs/db-master/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating contracts table...")
		if err := mghelper.CreateSchema(ctx, db, &contractstore.ContractDao{}); err != nil {
			return err
		}
		// (chain_id, address) is the upsert conflict target
		if err := mghelper.CreateUniqueIndex(ctx, db, "contracts", "idx_contracts_chain_id_address", "chain_id", "address"); err != nil {
			return err
		}
		// Downstream query paths filter on these
		return mghelper.CreateIndexes(ctx, db, "contracts", "chain_id", "protocol", "is_proxy")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping contracts table...")
		return mghelper.DropTables(ctx, db, &contractstore.ContractDao{})
	})
}
