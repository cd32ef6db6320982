package service

import (
	"context"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/uptrace/bun"
)

// Snapshot is an immutable view of the wallet published after every
// committed change. Readers never see a snapshot being built.
type Snapshot struct {
	Version     uint64                   `json:"version"`
	RefreshedAt time.Time                `json:"refreshed_at"`
	Network     string                   `json:"network"`
	NodeInfo    *nodegw.NodeInfo         `json:"node_info,omitempty"`
	Assets      []models.Asset           `json:"assets"`
	Balances    map[string]Balance       `json:"balances"`
	Unspents    []nodegw.Unspent         `json:"unspents"`
	Channels    []models.Channel         `json:"channels"`
	Transfers   []models.OnchainTransfer `json:"transfers"`
	Payments    []models.LnPayment       `json:"payments"`

	onchain map[string]nodegw.Balance
}

func emptySnapshot(network string) *Snapshot {
	return &Snapshot{
		Network:  network,
		Balances: map[string]Balance{},
		onchain:  map[string]nodegw.Balance{},
	}
}

// Snapshot returns the current published state.
func (svc *RgbHubService) Snapshot() *Snapshot {
	return svc.snapshot.Load()
}

// Balance returns the fused balance of an asset, zero when unknown.
func (s *Snapshot) Balance(assetID string) Balance {
	return s.Balances[assetID]
}

func (s *Snapshot) Channel(channelID string) *models.Channel {
	for i := range s.Channels {
		if s.Channels[i].ChannelID == channelID {
			return &s.Channels[i]
		}
	}
	return nil
}

// nodeState is everything a refresh cycle reads from the node.
type nodeState struct {
	NodeInfo     *nodegw.NodeInfo
	Assets       []nodegw.Asset
	Balances     map[string]nodegw.Balance
	Transfers    map[string][]nodegw.Transfer
	Transactions []nodegw.Transaction
	Payments     []nodegw.Payment
	Channels     []nodegw.Channel
	Unspents     []nodegw.Unspent
}

// buildSnapshot reads the ledger through db and combines it with the node
// state. When state is nil the node facing parts are carried over from prev.
func (svc *RgbHubService) buildSnapshot(ctx context.Context, db bun.IDB, prev *Snapshot, state *nodeState) (*Snapshot, error) {
	next := &Snapshot{
		Version:     prev.Version + 1,
		RefreshedAt: prev.RefreshedAt,
		Network:     svc.Network,
		NodeInfo:    prev.NodeInfo,
		Unspents:    prev.Unspents,
		onchain:     prev.onchain,
	}
	if state != nil {
		next.RefreshedAt = svc.now()
		next.NodeInfo = state.NodeInfo
		next.Unspents = state.Unspents
		next.onchain = state.Balances
	}

	if err := db.NewSelect().Model(&next.Assets).Order("issued_at DESC", "asset_id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	if err := db.NewSelect().Model(&next.Channels).Where("status != ?", common.ChannelStatusClosed).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	if err := db.NewSelect().Model(&next.Transfers).Order("updated_at ASC", "idx ASC").Scan(ctx); err != nil {
		return nil, err
	}
	if err := db.NewSelect().Model(&next.Payments).Order("updated_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	next.Balances = make(map[string]Balance, len(next.Assets)+1)
	next.Balances[common.BitcoinAssetID] = svc.computeBalance(common.BitcoinAssetID, next.onchain[common.BitcoinAssetID], next.Channels)
	for _, asset := range next.Assets {
		next.Balances[asset.AssetID] = svc.computeBalance(asset.AssetID, next.onchain[asset.AssetID], next.Channels)
	}
	return next, nil
}

// republishLocked rebuilds the snapshot from the ledger after a user
// operation. The caller holds stateMu.
func (svc *RgbHubService) republishLocked(ctx context.Context) error {
	prev := svc.Snapshot()
	next, err := svc.buildSnapshot(ctx, svc.DB, prev, nil)
	if err != nil {
		return err
	}
	svc.snapshot.Store(next)
	return nil
}

func (svc *RgbHubService) republish(ctx context.Context) {
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	if err := svc.republishLocked(ctx); err != nil {
		svc.Logger.Errorf("Failed to publish snapshot error:%v", err)
	}
}
