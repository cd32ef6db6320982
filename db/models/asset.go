package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Asset : Asset Model
// Rows are never deleted; assets the node stops reporting get Disappeared set.
type Asset struct {
	AssetID      string       `json:"asset_id" bun:",pk"`
	Kind         string       `json:"kind" bun:",notnull"`
	Ticker       string       `json:"ticker,omitempty" bun:",nullzero"`
	Name         string       `json:"name" bun:",notnull"`
	Description  string       `json:"description,omitempty" bun:",nullzero"`
	Precision    uint8        `json:"precision" bun:",notnull,default:0"`
	IssuedSupply uint64       `json:"issued_supply" bun:",notnull,default:0"`
	MediaDigest  string       `json:"media_digest,omitempty" bun:",nullzero"`
	MediaMime    string       `json:"media_mime,omitempty" bun:",nullzero"`
	IssuedAt     time.Time    `json:"issued_at" bun:",nullzero,notnull,default:current_timestamp"`
	Disappeared  bool         `json:"disappeared" bun:",notnull,default:false"`
	CreatedAt    time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt    bun.NullTime `json:"updated_at"`
}

func (a *Asset) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		a.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Asset)(nil)
