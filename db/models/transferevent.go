package models

import "time"

const (
	TransferEventTypeOnchain   = "onchain"
	TransferEventTypeLightning = "lightning"
)

// TransferEvent : append-only status history of a transfer.
type TransferEvent struct {
	ID         int64     `json:"id" bun:",pk,autoincrement"`
	Type       string    `json:"type" bun:",notnull"`
	Reference  string    `json:"reference" bun:",notnull"`
	AssetID    string    `json:"asset_id,omitempty" bun:",nullzero"`
	FromStatus string    `json:"from_status,omitempty" bun:",nullzero"`
	ToStatus   string    `json:"to_status" bun:",notnull"`
	Source     string    `json:"source" bun:",notnull"`
	CreatedAt  time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
