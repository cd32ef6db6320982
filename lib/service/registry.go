package service

import (
	"context"
	"net/http"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/uptrace/bun"
)

const bitcoinPrecision = 8

func BitcoinTicker(network string) string {
	switch network {
	case common.NetworkTestnet:
		return "tBTC"
	case common.NetworkRegtest:
		return "rBTC"
	default:
		return "BTC"
	}
}

func bitcoinName(network string) string {
	switch network {
	case common.NetworkTestnet:
		return "Testnet Bitcoin"
	case common.NetworkRegtest:
		return "Regtest Bitcoin"
	default:
		return "Bitcoin"
	}
}

// BitcoinAsset is the synthetic registry entry for the native coin.
func BitcoinAsset(network string) models.Asset {
	return models.Asset{
		AssetID:   common.BitcoinAssetID,
		Kind:      common.AssetKindBitcoin,
		Ticker:    BitcoinTicker(network),
		Name:      bitcoinName(network),
		Precision: bitcoinPrecision,
	}
}

// Asset looks an asset up by id, bitcoin included.
func (s *Snapshot) Asset(assetID string) (*models.Asset, error) {
	if assetID == common.BitcoinAssetID {
		asset := BitcoinAsset(s.Network)
		return &asset, nil
	}
	for i := range s.Assets {
		if s.Assets[i].AssetID == assetID {
			asset := s.Assets[i]
			return &asset, nil
		}
	}
	return nil, common.NewError(common.KindNotFound, common.KeyAssetNotFound, assetID)
}

// ListAssets returns the registry ordered by issuance time, newest first,
// with bitcoin pinned on top. An empty kind returns every asset.
func (svc *RgbHubService) ListAssets(kind string) ([]models.Asset, error) {
	switch kind {
	case "", common.AssetKindBitcoin, common.AssetKindRGB20, common.AssetKindRGB25:
	default:
		return nil, common.NewError(common.KindValidation, common.KeyBadArguments)
	}
	snapshot := svc.Snapshot()
	assets := []models.Asset{}
	if kind == "" || kind == common.AssetKindBitcoin {
		assets = append(assets, BitcoinAsset(snapshot.Network))
	}
	for _, asset := range snapshot.Assets {
		if kind == "" || asset.Kind == kind {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (svc *RgbHubService) GetAsset(assetID string) (*models.Asset, error) {
	return svc.Snapshot().Asset(assetID)
}

// RefreshRegistry pulls the asset list alone and merges it. The full refresh
// cycle does the same as part of its pass.
func (svc *RgbHubService) RefreshRegistry(ctx context.Context) error {
	assets, err := svc.Gateway.ListAssets(ctx)
	if err != nil {
		return err
	}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	err = svc.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.mergeAssets(ctx, tx, assets); err != nil {
			return err
		}
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	return svc.republishLocked(context.WithoutCancel(ctx))
}

func assetFromNode(a nodegw.Asset) models.Asset {
	asset := models.Asset{
		AssetID:      a.AssetID,
		Kind:         a.Kind,
		Ticker:       a.Ticker,
		Name:         a.Name,
		Description:  a.Details,
		Precision:    a.Precision,
		IssuedSupply: a.IssuedSupply,
		IssuedAt:     time.Unix(a.Timestamp, 0).UTC(),
	}
	if a.Media != nil {
		asset.MediaDigest = a.Media.Digest
		asset.MediaMime = a.Media.Mime
	}
	return asset
}

func sameAssetMetadata(a, b models.Asset) bool {
	return a.Kind == b.Kind &&
		a.Ticker == b.Ticker &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Precision == b.Precision &&
		a.IssuedSupply == b.IssuedSupply &&
		a.MediaDigest == b.MediaDigest &&
		a.MediaMime == b.MediaMime &&
		a.IssuedAt.Equal(b.IssuedAt)
}

// mergeAssets inserts new assets, updates changed metadata and flags the
// ones the node no longer reports. Rows are never deleted.
func (svc *RgbHubService) mergeAssets(ctx context.Context, tx bun.Tx, assets []nodegw.Asset) error {
	existing := []models.Asset{}
	if err := tx.NewSelect().Model(&existing).Scan(ctx); err != nil {
		return err
	}
	byID := make(map[string]models.Asset, len(existing))
	for _, asset := range existing {
		byID[asset.AssetID] = asset
	}
	seen := map[string]bool{}
	for _, a := range assets {
		if a.AssetID == "" || seen[a.AssetID] {
			continue
		}
		seen[a.AssetID] = true
		row := assetFromNode(a)
		old, ok := byID[a.AssetID]
		if !ok {
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
			svc.Logger.Infof("Registered asset asset_id:%v kind:%v name:%v", row.AssetID, row.Kind, row.Name)
			continue
		}
		if sameAssetMetadata(old, row) && !old.Disappeared {
			continue
		}
		row.CreatedAt = old.CreatedAt
		row.Disappeared = false
		if _, err := tx.NewUpdate().Model(&row).WherePK().ExcludeColumn("created_at").Exec(ctx); err != nil {
			return err
		}
	}
	for _, old := range existing {
		if seen[old.AssetID] || old.Disappeared {
			continue
		}
		old.Disappeared = true
		if _, err := tx.NewUpdate().Model(&old).Column("disappeared", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		svc.Logger.Warnf("Asset no longer reported by the node asset_id:%v", old.AssetID)
	}
	return nil
}

type AssetMedia struct {
	Digest string
	Mime   string
	Data   []byte
}

// GetAssetMedia returns the media blob of an RGB25 asset, cached by digest.
func (svc *RgbHubService) GetAssetMedia(ctx context.Context, assetID string) (*AssetMedia, error) {
	asset, err := svc.GetAsset(assetID)
	if err != nil {
		return nil, err
	}
	if asset.MediaDigest == "" {
		return nil, common.NewError(common.KindNotFound, common.KeyAssetNotFound, assetID)
	}
	if cached, ok := svc.mediaCache.Get(asset.MediaDigest); ok {
		return cached.(*AssetMedia), nil
	}
	data, err := svc.Gateway.GetAssetMedia(ctx, asset.MediaDigest)
	if err != nil {
		return nil, err
	}
	media := &AssetMedia{Digest: asset.MediaDigest, Mime: asset.MediaMime, Data: data}
	if media.Mime == "" {
		media.Mime = http.DetectContentType(data)
	}
	svc.mediaCache.Add(asset.MediaDigest, media)
	return media, nil
}
