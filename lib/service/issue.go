package service

import (
	"context"
	"errors"
	"strings"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
)

var errNoUncoloredUtxos = &common.Error{Kind: common.KindInsufficientFunds, Key: common.KeyNotEnoughUncolored}

type IssueRGB20Params struct {
	Ticker    string
	Name      string
	Precision uint8
	Amount    uint64
	Password  string
}

type IssueRGB25Params struct {
	Name        string
	Description string
	Precision   uint8
	Amount      uint64
	Media       []byte
	MediaName   string
	Password    string
}

func (svc *RgbHubService) IssueRGB20(ctx context.Context, p *IssueRGB20Params) (*models.Asset, error) {
	if strings.TrimSpace(p.Ticker) == "" || strings.TrimSpace(p.Name) == "" {
		return nil, common.NewError(common.KindValidation, common.KeyBadArguments)
	}
	if p.Amount == 0 {
		return nil, common.NewError(common.KindValidation, common.KeyInvalidAmount)
	}
	if err := svc.authorize(p.Password); err != nil {
		return nil, err
	}
	req := &nodegw.IssueRGB20Request{
		Ticker:    strings.ToUpper(strings.TrimSpace(p.Ticker)),
		Name:      strings.TrimSpace(p.Name),
		Precision: p.Precision,
		Amounts:   []uint64{p.Amount},
	}
	asset, err := svc.issue(ctx, func(ctx context.Context) (*nodegw.Asset, error) {
		return svc.Gateway.IssueRGB20(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if asset.Kind == "" {
		asset.Kind = common.AssetKindRGB20
	}
	return svc.afterIssue(ctx, asset)
}

func (svc *RgbHubService) IssueRGB25(ctx context.Context, p *IssueRGB25Params) (*models.Asset, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, common.NewError(common.KindValidation, common.KeyBadArguments)
	}
	if p.Amount == 0 {
		return nil, common.NewError(common.KindValidation, common.KeyInvalidAmount)
	}
	if len(p.Media) > 0 {
		info, err := svc.nodeInfo(ctx)
		if err != nil {
			return nil, err
		}
		if limit := info.MaxMediaUploadSizeMb; limit > 0 && len(p.Media) > limit*1024*1024 {
			return nil, common.NewError(common.KindValidation, common.KeyBadArguments)
		}
	}
	if err := svc.authorize(p.Password); err != nil {
		return nil, err
	}
	req := &nodegw.IssueRGB25Request{
		Name:      strings.TrimSpace(p.Name),
		Details:   p.Description,
		Precision: p.Precision,
		Amounts:   []uint64{p.Amount},
		Media:     p.Media,
		MediaName: p.MediaName,
	}
	asset, err := svc.issue(ctx, func(ctx context.Context) (*nodegw.Asset, error) {
		return svc.Gateway.IssueRGB25(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if asset.Kind == "" {
		asset.Kind = common.AssetKindRGB25
	}
	return svc.afterIssue(ctx, asset)
}

// issue dispatches an issuance. A wallet with sats but no colorable UTXO
// gets one created and the issuance is retried once; a wallet without sats
// gets INSUFFICIENT_FUNDS.
func (svc *RgbHubService) issue(ctx context.Context, dispatch func(ctx context.Context) (*nodegw.Asset, error)) (*nodegw.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dctx := afterDispatch(ctx)
	asset, err := dispatch(dctx)
	if err == nil || !errors.Is(err, errNoUncoloredUtxos) {
		return asset, err
	}
	svc.Logger.Infof("No colorable UTXO available, creating one before issuing")
	err = svc.Gateway.CreateUtxos(dctx, &nodegw.CreateUtxosRequest{
		UpTo:    false,
		Num:     common.DefaultUtxoCount,
		Size:    common.DefaultUtxoSizeSat,
		FeeRate: common.DefaultFeeRate,
	})
	if err != nil {
		if common.KindOf(err) == common.KindInsufficientFunds {
			return nil, common.WrapError(common.KindInsufficientFunds, common.KeyInsufficientFunds, err)
		}
		return nil, err
	}
	asset, err = dispatch(dctx)
	if errors.Is(err, errNoUncoloredUtxos) {
		return nil, common.WrapError(common.KindInsufficientFunds, common.KeyInsufficientFunds, err)
	}
	return asset, err
}

// afterIssue registers the asset, then refreshes so the issuance transfer
// and balance show up. A refresh already in flight may have listed the
// assets before the issuance, so a fresh cycle is started.
func (svc *RgbHubService) afterIssue(ctx context.Context, issued *nodegw.Asset) (*models.Asset, error) {
	dctx := afterDispatch(ctx)
	svc.Logger.Infof("Asset issued asset_id:%v kind:%v name:%v", issued.AssetID, issued.Kind, issued.Name)
	if err := svc.registerAsset(dctx, issued); err != nil {
		return nil, err
	}
	svc.refreshGroup.Forget(refreshKey)
	if _, err := svc.Refresh(dctx); err != nil {
		svc.Logger.Errorf("Refresh after issuance failed asset_id:%v error:%v", issued.AssetID, err)
	}
	return svc.GetAsset(issued.AssetID)
}

func (svc *RgbHubService) registerAsset(ctx context.Context, issued *nodegw.Asset) error {
	row := assetFromNode(*issued)
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	_, err := svc.DB.NewInsert().Model(&row).On("CONFLICT (asset_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}
	return svc.republishLocked(ctx)
}
