package service

import (
	"fmt"
	"strconv"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/segmentio/ksuid"
)

// sources recorded in the transfer history
const (
	sourceUser         = "user"
	sourceNode         = "node"
	sourceFailTransfer = "fail_transfer"
	sourcePruned       = "pruned"
	sourceExpired      = "expired"
)

// changeSet collects the events of a unit of work; they are emitted only
// once the work is committed and published.
type changeSet struct {
	events []common.Event
}

func (cs *changeSet) transfer(t *models.OnchainTransfer) {
	cs.events = append(cs.events, common.Event{
		Type:        common.EventTransferUpdated,
		AssetID:     t.AssetID,
		TransferIdx: t.Idx,
		Status:      t.Status,
	})
}

func (cs *changeSet) payment(p *models.LnPayment) {
	cs.events = append(cs.events, common.Event{
		Type:        common.EventTransferUpdated,
		AssetID:     p.AssetID,
		PaymentHash: p.PaymentHash,
		Status:      p.Status,
	})
}

func (cs *changeSet) channel(ch *models.Channel) {
	cs.events = append(cs.events, common.Event{
		Type:      common.EventChannelStateChanged,
		AssetID:   ch.AssetID,
		ChannelID: ch.ChannelID,
		Status:    ch.Status,
	})
}

// EventFromHistory rebuilds the transfer_updated event of a recorded status
// change. The id is derived from the history row so consumers can dedupe
// replays.
func EventFromHistory(ev *models.TransferEvent) common.Event {
	event := common.Event{
		ID:        fmt.Sprintf("transfer_event:%d", ev.ID),
		Type:      common.EventTransferUpdated,
		AssetID:   ev.AssetID,
		Status:    ev.ToStatus,
		Message:   ev.Source,
		CreatedAt: ev.CreatedAt,
	}
	if ev.Type == models.TransferEventTypeLightning {
		event.PaymentHash = ev.Reference
	} else if idx, err := strconv.ParseInt(ev.Reference, 10, 64); err == nil {
		event.TransferIdx = idx
	}
	return event
}

// balanceEvents compares two snapshots and reports every asset whose fused
// balance moved.
func balanceEvents(prev, next *Snapshot) []common.Event {
	events := []common.Event{}
	ids := []string{common.BitcoinAssetID}
	for _, asset := range next.Assets {
		ids = append(ids, asset.AssetID)
	}
	for _, id := range ids {
		if prev.Balances[id] != next.Balances[id] {
			events = append(events, common.Event{Type: common.EventBalanceChanged, AssetID: id})
		}
	}
	return events
}

func (svc *RgbHubService) emit(events ...common.Event) {
	for _, event := range events {
		if event.ID == "" {
			event.ID = ksuid.New().String()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = svc.now()
		}
		if dropped := svc.EventPubSub.Publish(event); dropped > 0 {
			svc.Logger.Warnf("Event dropped for slow subscribers type:%v dropped:%v", event.Type, dropped)
		}
	}
}

// commitEvents publishes the events of a committed change set followed by
// the balance changes between the two snapshots.
func (svc *RgbHubService) commitEvents(cs *changeSet, prev, next *Snapshot) {
	svc.emit(cs.events...)
	svc.emit(balanceEvents(prev, next)...)
}
