package service

import (
	"context"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/invoices"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/segmentio/ksuid"
)

// UsableChannels returns the channels that can carry assetID right now.
// An empty asset id matches every usable channel.
func (s *Snapshot) UsableChannels(assetID string) []models.Channel {
	result := []models.Channel{}
	for _, ch := range s.Channels {
		if !ch.IsUsable || !ch.Ready || ch.Status != common.ChannelStatusOpen {
			continue
		}
		if assetID != "" && assetID != common.BitcoinAssetID && ch.AssetID != assetID {
			continue
		}
		result = append(result, ch)
	}
	return result
}

func (s *Snapshot) MaxLocalSendAmount(assetID string) uint64 {
	best := uint64(0)
	for _, ch := range s.UsableChannels(assetID) {
		if ch.AssetLocalAmount > best {
			best = ch.AssetLocalAmount
		}
	}
	return best
}

func (s *Snapshot) MaxRemoteReceiveAmount(assetID string) uint64 {
	best := uint64(0)
	for _, ch := range s.UsableChannels(assetID) {
		if ch.AssetRemoteAmount > best {
			best = ch.AssetRemoteAmount
		}
	}
	return best
}

func (s *Snapshot) MaxInboundMsat(assetID string) uint64 {
	best := uint64(0)
	for _, ch := range s.UsableChannels(assetID) {
		if ch.InboundBalanceMsat > best {
			best = ch.InboundBalanceMsat
		}
	}
	return best
}

func (s *Snapshot) MaxOutboundMsat(assetID string) uint64 {
	best := uint64(0)
	for _, ch := range s.UsableChannels(assetID) {
		if ch.OutboundBalanceMsat > best {
			best = ch.OutboundBalanceMsat
		}
	}
	return best
}

func (svc *RgbHubService) ListChannels() []models.Channel {
	return svc.Snapshot().Channels
}

func (svc *RgbHubService) GetUsableForAsset(assetID string) []models.Channel {
	return svc.Snapshot().UsableChannels(assetID)
}

// nodeInfo returns the node info of the last refresh, asking the node when
// no refresh happened yet.
func (svc *RgbHubService) nodeInfo(ctx context.Context) (*nodegw.NodeInfo, error) {
	if info := svc.Snapshot().NodeInfo; info != nil {
		return info, nil
	}
	return svc.Gateway.NodeInfo(ctx)
}

type OpenChannelParams struct {
	PeerURI     string
	CapacitySat *uint64
	PushMsat    *uint64
	AssetID     string
	AssetAmount uint64
	Public      *bool
	Password    string
}

// OpenChannel validates the request, dispatches it and records a
// provisional OPENING row the reconciler later binds to the node's channel.
func (svc *RgbHubService) OpenChannel(ctx context.Context, p *OpenChannelParams) (*models.Channel, error) {
	peer, err := invoices.ParsePeerURI(p.PeerURI)
	if err != nil {
		return nil, err
	}
	if p.AssetID == common.BitcoinAssetID {
		p.AssetID = ""
	}
	capacity := uint64(common.DefaultChannelCapacitySat)
	if p.CapacitySat != nil {
		capacity = *p.CapacitySat
	}
	push := uint64(0)
	switch {
	case p.PushMsat != nil:
		push = *p.PushMsat
	case p.AssetID == "":
		push = common.DefaultChannelPushMsat
	}
	public := true
	if p.Public != nil {
		public = *p.Public
	}

	info, err := svc.nodeInfo(ctx)
	if err != nil {
		return nil, err
	}
	minCapacity := info.ChannelCapacityMinSat
	if p.AssetID != "" && info.RgbChannelCapacityMinSat > minCapacity {
		minCapacity = info.RgbChannelCapacityMinSat
	}
	maxCapacity := info.ChannelCapacityMaxSat
	if capacity < minCapacity || (maxCapacity > 0 && capacity > maxCapacity) {
		return nil, common.NewError(common.KindValidation, common.KeyCapacityOfChannel, minCapacity, maxCapacity)
	}
	if push > capacity*1000 {
		return nil, common.NewError(common.KindValidation, common.KeyInvalidAmount)
	}

	snapshot := svc.Snapshot()
	if p.AssetID != "" {
		if _, err := snapshot.Asset(p.AssetID); err != nil {
			return nil, err
		}
		if p.AssetAmount == 0 {
			return nil, common.NewError(common.KindValidation, common.KeyInvalidAmount)
		}
		if info.ChannelAssetMinAmount > 0 && p.AssetAmount < info.ChannelAssetMinAmount ||
			info.ChannelAssetMaxAmount > 0 && p.AssetAmount > info.ChannelAssetMaxAmount {
			return nil, common.NewError(common.KindValidation, common.KeyInvalidAmount)
		}
		if p.AssetAmount > snapshot.Balance(p.AssetID).OnChain.Spendable {
			return nil, common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds)
		}
	} else if capacity > snapshot.Balance(common.BitcoinAssetID).OnChain.Spendable {
		return nil, common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds)
	}

	if err := svc.authorize(p.Password); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dctx := afterDispatch(ctx)
	temporaryID, err := svc.Gateway.OpenChannel(dctx, &nodegw.OpenChannelRequest{
		PeerURI:     peer.String(),
		CapacitySat: capacity,
		PushMsat:    push,
		AssetID:     p.AssetID,
		AssetAmount: p.AssetAmount,
		Public:      public,
		WithAnchors: true,
		FeeBaseMsat: common.DefaultFeeBaseMsat,
	})
	if err != nil {
		svc.Logger.Errorf("Open channel failed peer:%v asset_id:%v error:%v", peer.Pubkey, p.AssetID, err)
		return nil, err
	}
	if temporaryID == "" {
		temporaryID = "pending-" + ksuid.New().String()
	}

	row := &models.Channel{
		ChannelID:         temporaryID,
		Provisional:       true,
		PeerPubkey:        peer.Pubkey,
		AssetID:           p.AssetID,
		CapacitySat:       capacity,
		LocalBalanceMsat:  capacity*1000 - push,
		RemoteBalanceMsat: push,
		AssetLocalAmount:  p.AssetAmount,
		Public:            public,
		Status:            common.ChannelStatusOpening,
	}
	cs := &changeSet{}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	prev := svc.Snapshot()
	if _, err := svc.DB.NewInsert().Model(row).Exec(dctx); err != nil {
		return nil, err
	}
	cs.channel(row)
	if err := svc.republishLocked(dctx); err != nil {
		return nil, err
	}
	svc.commitEvents(cs, prev, svc.Snapshot())
	svc.Logger.Infof("Channel opening channel_id:%v peer:%v asset_id:%v capacity_sat:%v", row.ChannelID, row.PeerPubkey, row.AssetID, row.CapacitySat)
	return row, nil
}

type CloseChannelResult struct {
	Channel *models.Channel
	Message string
}

// CloseChannel closes a channel cooperatively, or by force. Closing a
// channel that is still opening is refused; repeating a close is a no-op
// unless it escalates to a force close.
func (svc *RgbHubService) CloseChannel(ctx context.Context, channelID string, force bool, password string) (*CloseChannelResult, error) {
	unlock := svc.channelLocks.Lock(channelID)
	defer unlock()

	row := &models.Channel{}
	err := svc.DB.NewSelect().Model(row).Where("channel_id = ?", channelID).Limit(1).Scan(ctx)
	if err != nil || row.Status == common.ChannelStatusClosed {
		return nil, common.NewError(common.KindNotFound, common.KeyChannelNotFound, channelID)
	}
	message, _ := common.Message(common.KeyChannelClosed, row.PeerPubkey)
	switch {
	case row.Status == common.ChannelStatusOpening || row.Provisional:
		return nil, common.NewError(common.KindChannelBusy, common.KeyChannelBusy, channelID)
	case row.Status == common.ChannelStatusForceClosing:
		return &CloseChannelResult{Channel: row, Message: message}, nil
	case row.Status == common.ChannelStatusClosing && !force:
		return &CloseChannelResult{Channel: row, Message: message}, nil
	}

	if err := svc.authorize(password); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dctx := afterDispatch(ctx)
	if err := svc.Gateway.CloseChannel(dctx, row.ChannelID, row.PeerPubkey, force); err != nil {
		svc.Logger.Errorf("Close channel failed channel_id:%v force:%v error:%v", row.ChannelID, force, err)
		return nil, err
	}

	row.Status = common.ChannelStatusClosing
	if force {
		row.Status = common.ChannelStatusForceClosing
	}
	row.IsUsable = false
	cs := &changeSet{}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	prev := svc.Snapshot()
	if _, err := svc.DB.NewUpdate().Model(row).Column("status", "is_usable", "updated_at").WherePK().Exec(dctx); err != nil {
		return nil, err
	}
	cs.channel(row)
	if err := svc.republishLocked(dctx); err != nil {
		return nil, err
	}
	svc.commitEvents(cs, prev, svc.Snapshot())
	svc.Logger.Infof("Channel closing channel_id:%v force:%v", row.ChannelID, force)
	return &CloseChannelResult{Channel: row, Message: message}, nil
}
