package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Channel : Channel Model
// ChannelID starts as the temporary id returned by the open call and is
// replaced by the final id once the node reports it.
type Channel struct {
	ID                  int64        `json:"-" bun:",pk,autoincrement"`
	ChannelID           string       `json:"channel_id" bun:",unique,notnull"`
	Provisional         bool         `json:"provisional" bun:",notnull,default:false"`
	PeerPubkey          string       `json:"peer_pubkey" bun:",notnull"`
	PeerAlias           string       `json:"peer_alias,omitempty" bun:",nullzero"`
	FundingTxid         string       `json:"funding_txid,omitempty" bun:",nullzero"`
	ShortChannelID      uint64       `json:"short_channel_id,omitempty" bun:",nullzero"`
	AssetID             string       `json:"asset_id,omitempty" bun:",nullzero"`
	CapacitySat         uint64       `json:"capacity_sat" bun:",notnull,default:0"`
	LocalBalanceMsat    uint64       `json:"local_balance_msat" bun:",notnull,default:0"`
	RemoteBalanceMsat   uint64       `json:"remote_balance_msat" bun:",notnull,default:0"`
	AssetLocalAmount    uint64       `json:"asset_local_amount" bun:",notnull,default:0"`
	AssetRemoteAmount   uint64       `json:"asset_remote_amount" bun:",notnull,default:0"`
	InboundBalanceMsat  uint64       `json:"inbound_balance_msat" bun:",notnull,default:0"`
	OutboundBalanceMsat uint64       `json:"outbound_balance_msat" bun:",notnull,default:0"`
	IsUsable            bool         `json:"is_usable" bun:",notnull,default:false"`
	Ready               bool         `json:"ready" bun:",notnull,default:false"`
	Public              bool         `json:"public" bun:",notnull,default:false"`
	Status              string       `json:"status" bun:",notnull"`
	ClosedAt            bun.NullTime `json:"closed_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt           bun.NullTime `json:"updated_at"`
}

func (ch *Channel) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		ch.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Channel)(nil)
