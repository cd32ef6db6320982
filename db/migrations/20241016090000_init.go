package migrations

import (
	"context"

	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/uptrace/bun"
)

/* This init reflects the latest model fields when run on a fresh db.
When adding/removing columns in later migrations use IfNotExists/IfExists.
*/
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []interface{}{
			(*models.Asset)(nil),
			(*models.Channel)(nil),
			(*models.OnchainTransfer)(nil),
			(*models.LnPayment)(nil),
			(*models.TransferEvent)(nil),
			(*models.Setting)(nil),
		}
		for _, model := range tables {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		indexes := []struct {
			model  interface{}
			name   string
			column string
		}{
			{(*models.OnchainTransfer)(nil), "index_onchain_transfers_on_asset_id", "asset_id"},
			{(*models.OnchainTransfer)(nil), "index_onchain_transfers_on_status", "status"},
			{(*models.LnPayment)(nil), "index_ln_payments_on_status", "status"},
			{(*models.TransferEvent)(nil), "index_transfer_events_on_reference", "reference"},
		}
		for _, idx := range indexes {
			if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil)
}
