package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// LnPayment : Lightning payment, inbound or outbound.
type LnPayment struct {
	ID          int64        `json:"-" bun:",pk,autoincrement"`
	PaymentHash string       `json:"payment_hash" bun:",unique,notnull"`
	PayeePubkey string       `json:"payee_pubkey,omitempty" bun:",nullzero"`
	AssetID     string       `json:"asset_id,omitempty" bun:",nullzero"`
	AssetAmount uint64       `json:"asset_amount" bun:",notnull,default:0"`
	AmtMsat     uint64       `json:"amt_msat" bun:",notnull,default:0"`
	Inbound     bool         `json:"inbound" bun:",notnull,default:false"`
	Status      string       `json:"status" bun:",notnull"`
	Invoice     string       `json:"invoice,omitempty" bun:",nullzero"`
	ExpiresAt   bun.NullTime `json:"expires_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time    `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

func (p *LnPayment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		now := time.Now()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*LnPayment)(nil)
