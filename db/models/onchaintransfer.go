package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// OnchainTransfer : on-chain RGB or BTC transfer.
// Idx is the stable local id, BatchTransferIdx the node side index once known.
// Amount is signed from the wallet's point of view, positive is a credit.
type OnchainTransfer struct {
	Idx                int64     `json:"idx" bun:",pk,autoincrement"`
	AssetID            string    `json:"asset_id" bun:",notnull,unique:asset_batch"`
	BatchTransferIdx   int64     `json:"batch_transfer_idx,omitempty" bun:",nullzero,unique:asset_batch"`
	Kind               string    `json:"kind" bun:",notnull"`
	Amount             int64     `json:"amount" bun:",notnull"`
	Status             string    `json:"status" bun:",notnull"`
	Direction          string    `json:"transfer_direction" bun:",notnull"`
	Txid               string    `json:"txid,omitempty" bun:",nullzero"`
	RecipientID        string    `json:"recipient_id,omitempty" bun:",nullzero"`
	Invoice            string    `json:"invoice,omitempty" bun:",nullzero"`
	ChangeUtxo         string    `json:"change_utxo,omitempty" bun:",nullzero"`
	ReceiveUtxo        string    `json:"receive_utxo,omitempty" bun:",nullzero"`
	TransportEndpoints []string  `json:"transport_endpoints"`
	MinConfirmations   uint8     `json:"min_confirmations" bun:",notnull,default:1"`
	Expiration         int64     `json:"expiration,omitempty" bun:",nullzero"`
	CreatedAt          time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

// the ledger owns UpdatedAt, it only gets a value here when missing
func (t *OnchainTransfer) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		now := time.Now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*OnchainTransfer)(nil)
