package service

import (
	"sort"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
)

type OnChainBalance struct {
	Total     uint64 `json:"total"`
	Spendable uint64 `json:"spendable"`
	Future    uint64 `json:"future"`
}

type LightningBalance struct {
	Total     uint64 `json:"total"`
	Spendable uint64 `json:"spendable"`
}

type Balance struct {
	OnChain   OnChainBalance   `json:"on_chain"`
	Lightning LightningBalance `json:"lightning"`
}

type AssetRow struct {
	AssetID        string     `json:"asset_id"`
	Name           string     `json:"name"`
	Kind           string     `json:"kind"`
	Ticker         string     `json:"ticker,omitempty"`
	MediaDigest    string     `json:"media_digest,omitempty"`
	Precision      uint8      `json:"precision"`
	Balance        Balance    `json:"balance"`
	LastTransferAt *time.Time `json:"last_transfer_at,omitempty"`
}

// TransferRow is one entry of the joint on-chain and lightning history of
// an asset.
type TransferRow struct {
	Rail      string                  `json:"rail"`
	UpdatedAt time.Time               `json:"updated_at"`
	OnChain   *models.OnchainTransfer `json:"on_chain,omitempty"`
	Lightning *models.LnPayment       `json:"lightning,omitempty"`
}

type AssetDetail struct {
	Asset              models.Asset             `json:"asset"`
	Balance            Balance                  `json:"balance"`
	OnChainTransfers   []models.OnchainTransfer `json:"on_chain_transfers"`
	LightningTransfers []models.LnPayment       `json:"lightning_transfers"`
	History            []TransferRow            `json:"history"`
}

func (svc *RgbHubService) computeBalance(assetID string, onchain nodegw.Balance, channels []models.Channel) Balance {
	b := Balance{
		OnChain: OnChainBalance{
			Total:     onchain.Settled,
			Spendable: onchain.Spendable,
			Future:    onchain.Future,
		},
	}
	if b.OnChain.Spendable > b.OnChain.Total {
		svc.Logger.Warnf("Node reported spendable above settled asset_id:%v spendable:%v settled:%v", assetID, b.OnChain.Spendable, b.OnChain.Total)
		b.OnChain.Spendable = b.OnChain.Total
	}
	if b.OnChain.Future < b.OnChain.Total {
		svc.Logger.Warnf("Node reported future below settled asset_id:%v future:%v settled:%v", assetID, b.OnChain.Future, b.OnChain.Total)
		b.OnChain.Future = b.OnChain.Total
	}
	for _, ch := range channels {
		usable := ch.IsUsable && ch.Ready
		if assetID == common.BitcoinAssetID {
			b.Lightning.Total += ch.LocalBalanceMsat / 1000
			if usable {
				b.Lightning.Spendable += ch.OutboundBalanceMsat / 1000
			}
			continue
		}
		if ch.AssetID != assetID {
			continue
		}
		b.Lightning.Total += ch.AssetLocalAmount
		if usable {
			b.Lightning.Spendable += ch.AssetLocalAmount
		}
	}
	if b.Lightning.Spendable > b.Lightning.Total {
		b.Lightning.Spendable = b.Lightning.Total
	}
	return b
}

func isExhausted(b Balance) bool {
	return b.OnChain.Future == 0 && b.Lightning.Total == 0
}

// AssetOverview lists assets by most recent activity, with bitcoin first.
// Exhausted RGB assets are left out when hideExhausted is set.
func (s *Snapshot) AssetOverview(hideExhausted bool) []AssetRow {
	lastActivity := s.lastActivity()
	bitcoin := BitcoinAsset(s.Network)
	rows := []AssetRow{s.assetRow(bitcoin, lastActivity)}

	others := []AssetRow{}
	for _, asset := range s.Assets {
		row := s.assetRow(asset, lastActivity)
		if hideExhausted && isExhausted(row.Balance) {
			continue
		}
		others = append(others, row)
	}
	sort.SliceStable(others, func(i, j int) bool {
		return activityOf(others[i]).After(activityOf(others[j]))
	})
	return append(rows, others...)
}

func activityOf(row AssetRow) time.Time {
	if row.LastTransferAt == nil {
		return time.Time{}
	}
	return *row.LastTransferAt
}

func (s *Snapshot) assetRow(asset models.Asset, lastActivity map[string]time.Time) AssetRow {
	row := AssetRow{
		AssetID:     asset.AssetID,
		Name:        asset.Name,
		Kind:        asset.Kind,
		Ticker:      asset.Ticker,
		MediaDigest: asset.MediaDigest,
		Precision:   asset.Precision,
		Balance:     s.Balance(asset.AssetID),
	}
	if at, ok := lastActivity[asset.AssetID]; ok {
		row.LastTransferAt = &at
	}
	return row
}

func (s *Snapshot) lastActivity() map[string]time.Time {
	result := map[string]time.Time{}
	touch := func(assetID string, at time.Time) {
		if current, ok := result[assetID]; !ok || at.After(current) {
			result[assetID] = at
		}
	}
	for _, t := range s.Transfers {
		touch(t.AssetID, t.UpdatedAt)
	}
	for _, p := range s.Payments {
		assetID := p.AssetID
		if assetID == "" {
			assetID = common.BitcoinAssetID
		}
		touch(assetID, p.UpdatedAt)
	}
	return result
}

// AssetDetail returns an asset with its balance and history. Hidden assets
// are still reachable here.
func (s *Snapshot) AssetDetail(assetID string) (*AssetDetail, error) {
	asset, err := s.Asset(assetID)
	if err != nil {
		return nil, err
	}
	detail := &AssetDetail{
		Asset:              *asset,
		Balance:            s.Balance(assetID),
		OnChainTransfers:   []models.OnchainTransfer{},
		LightningTransfers: []models.LnPayment{},
		History:            []TransferRow{},
	}
	for i := range s.Transfers {
		t := s.Transfers[i]
		if t.AssetID != assetID {
			continue
		}
		detail.OnChainTransfers = append(detail.OnChainTransfers, t)
		detail.History = append(detail.History, TransferRow{Rail: "on_chain", UpdatedAt: t.UpdatedAt, OnChain: &t})
	}
	for i := range s.Payments {
		p := s.Payments[i]
		if p.AssetID != assetID && !(assetID == common.BitcoinAssetID && p.AssetID == "") {
			continue
		}
		detail.LightningTransfers = append(detail.LightningTransfers, p)
		detail.History = append(detail.History, TransferRow{Rail: "lightning", UpdatedAt: p.UpdatedAt, Lightning: &p})
	}
	// the ledger order is updated_at then idx ascending, a stable sort keeps
	// idx ascending among equal timestamps
	sort.SliceStable(detail.OnChainTransfers, func(i, j int) bool {
		return detail.OnChainTransfers[i].UpdatedAt.After(detail.OnChainTransfers[j].UpdatedAt)
	})
	sort.SliceStable(detail.LightningTransfers, func(i, j int) bool {
		return detail.LightningTransfers[i].UpdatedAt.After(detail.LightningTransfers[j].UpdatedAt)
	})
	sort.SliceStable(detail.History, func(i, j int) bool {
		return detail.History[i].UpdatedAt.After(detail.History[j].UpdatedAt)
	})
	return detail, nil
}

// Overview is the snapshot based asset overview honoring the
// hide_exhausted_assets setting.
func (svc *RgbHubService) Overview() []AssetRow {
	return svc.Snapshot().AssetOverview(svc.CurrentSettings().HideExhaustedAssets)
}

func (svc *RgbHubService) AssetDetail(assetID string) (*AssetDetail, error) {
	return svc.Snapshot().AssetDetail(assetID)
}
