package service

import (
	"context"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/uptrace/bun"
)

// nextUpdatedAt returns a timestamp strictly after prev, preferring the one
// the node reported.
func (svc *RgbHubService) nextUpdatedAt(prev time.Time, reported time.Time) time.Time {
	candidate := reported
	if candidate.IsZero() {
		candidate = svc.now()
	}
	if !candidate.After(prev) {
		candidate = prev.Add(time.Millisecond)
	}
	return candidate
}

func unixOrZero(ts int64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// advanceTransfer moves t to status along the state machine edges and
// appends one history row per edge. It reports whether the status changed;
// moves the machine does not allow are logged and ignored.
func (svc *RgbHubService) advanceTransfer(ctx context.Context, tx bun.IDB, t *models.OnchainTransfer, status, source string) (bool, error) {
	if t.Status == status {
		return false, nil
	}
	steps := transferPath(t.Status, status)
	if steps == nil {
		svc.Logger.Warnf("Ignoring transfer status move idx:%v asset_id:%v from:%v to:%v source:%v", t.Idx, t.AssetID, t.Status, status, source)
		return false, nil
	}
	from := t.Status
	for _, step := range steps {
		event := models.TransferEvent{
			Type:       models.TransferEventTypeOnchain,
			Reference:  transferReference(t.Idx),
			AssetID:    t.AssetID,
			FromStatus: from,
			ToStatus:   step,
			Source:     source,
		}
		if _, err := tx.NewInsert().Model(&event).Exec(ctx); err != nil {
			return false, err
		}
		from = step
	}
	t.Status = status
	return true, nil
}

func (svc *RgbHubService) advancePayment(ctx context.Context, tx bun.IDB, p *models.LnPayment, status, source string) (bool, error) {
	if p.Status == status {
		return false, nil
	}
	steps := paymentPath(p.Status, status)
	if steps == nil {
		svc.Logger.Warnf("Ignoring payment status move payment_hash:%v from:%v to:%v source:%v", p.PaymentHash, p.Status, status, source)
		return false, nil
	}
	from := p.Status
	for _, step := range steps {
		event := models.TransferEvent{
			Type:       models.TransferEventTypeLightning,
			Reference:  p.PaymentHash,
			AssetID:    p.AssetID,
			FromStatus: from,
			ToStatus:   step,
			Source:     source,
		}
		if _, err := tx.NewInsert().Model(&event).Exec(ctx); err != nil {
			return false, err
		}
		from = step
	}
	p.Status = status
	return true, nil
}

func (svc *RgbHubService) recordCreated(ctx context.Context, tx bun.IDB, eventType, reference, assetID, status, source string) error {
	event := models.TransferEvent{
		Type:      eventType,
		Reference: reference,
		AssetID:   assetID,
		ToStatus:  status,
		Source:    source,
	}
	_, err := tx.NewInsert().Model(&event).Exec(ctx)
	return err
}

func transferDirection(kind string) string {
	switch kind {
	case common.TransferKindIssuance:
		return common.TransferDirectionInternal
	case common.TransferKindSend:
		return common.TransferDirectionSent
	default:
		return common.TransferDirectionReceived
	}
}

func signedAmount(kind string, amount uint64) int64 {
	if kind == common.TransferKindSend {
		return -int64(amount)
	}
	return int64(amount)
}

func endpointURLs(endpoints []nodegw.TransportEndpoint) []string {
	urls := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		urls = append(urls, e.Endpoint)
	}
	return urls
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type transferIndex struct {
	rows        []*models.OnchainTransfer
	byBatch     map[string]map[int64]*models.OnchainTransfer
	byTxid      map[string]*models.OnchainTransfer
	byRecipient map[string]*models.OnchainTransfer
	matched     map[int64]bool
}

func newTransferIndex(rows []models.OnchainTransfer) *transferIndex {
	idx := &transferIndex{
		byBatch:     map[string]map[int64]*models.OnchainTransfer{},
		byTxid:      map[string]*models.OnchainTransfer{},
		byRecipient: map[string]*models.OnchainTransfer{},
		matched:     map[int64]bool{},
	}
	for i := range rows {
		idx.add(&rows[i])
	}
	return idx
}

func (idx *transferIndex) add(t *models.OnchainTransfer) {
	idx.rows = append(idx.rows, t)
	if t.BatchTransferIdx != 0 {
		if idx.byBatch[t.AssetID] == nil {
			idx.byBatch[t.AssetID] = map[int64]*models.OnchainTransfer{}
		}
		idx.byBatch[t.AssetID][t.BatchTransferIdx] = t
	}
	if t.Kind == common.TransferKindSend && t.Txid != "" {
		idx.byTxid[t.AssetID+":"+t.Txid] = t
	}
	if t.RecipientID != "" {
		idx.byRecipient[t.RecipientID] = t
	}
}

func (idx *transferIndex) find(assetID string, nt nodegw.Transfer) *models.OnchainTransfer {
	if t := idx.byBatch[assetID][nt.Idx]; t != nil && !idx.matched[t.Idx] {
		return t
	}
	if nt.Kind == common.TransferKindSend && nt.Txid != "" {
		if t := idx.byTxid[assetID+":"+nt.Txid]; t != nil && !idx.matched[t.Idx] {
			return t
		}
	}
	if nt.RecipientID != "" {
		if t := idx.byRecipient[nt.RecipientID]; t != nil && !idx.matched[t.Idx] && (t.AssetID == "" || t.AssetID == assetID) {
			return t
		}
	}
	return nil
}

// mergeTransfers mirrors the node's per asset transfer lists into the
// ledger. Only assets present in lists were fetched this cycle.
func (svc *RgbHubService) mergeTransfers(ctx context.Context, tx bun.Tx, lists map[string][]nodegw.Transfer, startedAt time.Time, cs *changeSet) error {
	rows := []models.OnchainTransfer{}
	if err := tx.NewSelect().Model(&rows).Where("asset_id != ?", common.BitcoinAssetID).Order("idx ASC").Scan(ctx); err != nil {
		return err
	}
	index := newTransferIndex(rows)

	for assetID, transfers := range lists {
		for _, nt := range transfers {
			local := index.find(assetID, nt)
			if local == nil {
				row, err := svc.insertNodeTransfer(ctx, tx, assetID, nt)
				if err != nil {
					return err
				}
				index.add(row)
				index.matched[row.Idx] = true
				cs.transfer(row)
				continue
			}
			index.matched[local.Idx] = true
			changed, err := svc.updateFromNode(ctx, tx, local, assetID, nt)
			if err != nil {
				return err
			}
			if changed {
				cs.transfer(local)
			}
		}
	}

	for _, t := range index.rows {
		if index.matched[t.Idx] || t.Status != common.TransferStatusWaitingCounterparty || !t.CreatedAt.Before(startedAt) {
			continue
		}
		source := ""
		switch {
		case t.AssetID != "" && lists[t.AssetID] != nil:
			source = sourcePruned
		case t.AssetID == "" && t.Expiration > 0 && t.Expiration < startedAt.Unix():
			source = sourceExpired
		default:
			continue
		}
		if _, err := svc.advanceTransfer(ctx, tx, t, common.TransferStatusFailed, source); err != nil {
			return err
		}
		t.UpdatedAt = svc.nextUpdatedAt(t.UpdatedAt, time.Time{})
		if _, err := tx.NewUpdate().Model(t).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		svc.Logger.Infof("Transfer missing at the node marked failed idx:%v asset_id:%v source:%v", t.Idx, t.AssetID, source)
		cs.transfer(t)
	}
	return nil
}

func (svc *RgbHubService) insertNodeTransfer(ctx context.Context, tx bun.Tx, assetID string, nt nodegw.Transfer) (*models.OnchainTransfer, error) {
	createdAt := unixOrZero(nt.CreatedAt)
	if createdAt.IsZero() {
		createdAt = svc.now()
	}
	updatedAt := unixOrZero(nt.UpdatedAt)
	if updatedAt.Before(createdAt) {
		updatedAt = createdAt
	}
	row := &models.OnchainTransfer{
		AssetID:            assetID,
		BatchTransferIdx:   nt.Idx,
		Kind:               nt.Kind,
		Amount:             signedAmount(nt.Kind, nt.Amount),
		Status:             nt.Status,
		Direction:          transferDirection(nt.Kind),
		Txid:               nt.Txid,
		RecipientID:        nt.RecipientID,
		ChangeUtxo:         nt.ChangeUtxo,
		ReceiveUtxo:        nt.ReceiveUtxo,
		TransportEndpoints: endpointURLs(nt.TransportEndpoints),
		MinConfirmations:   common.DefaultMinConfirmations,
		Expiration:         nt.Expiration,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, err
	}
	if err := svc.recordCreated(ctx, tx, models.TransferEventTypeOnchain, transferReference(row.Idx), assetID, row.Status, sourceNode); err != nil {
		return nil, err
	}
	return row, nil
}

// updateFromNode copies node reported fields onto a local row and advances
// its status. updated_at only moves when something changed.
func (svc *RgbHubService) updateFromNode(ctx context.Context, tx bun.Tx, t *models.OnchainTransfer, assetID string, nt nodegw.Transfer) (bool, error) {
	changed := false
	set := func(dst *string, value string) {
		if value != "" && *dst != value {
			*dst = value
			changed = true
		}
	}
	if t.AssetID == "" {
		t.AssetID = assetID
		changed = true
	}
	if t.BatchTransferIdx != nt.Idx {
		t.BatchTransferIdx = nt.Idx
		changed = true
	}
	set(&t.Txid, nt.Txid)
	set(&t.RecipientID, nt.RecipientID)
	set(&t.ChangeUtxo, nt.ChangeUtxo)
	set(&t.ReceiveUtxo, nt.ReceiveUtxo)
	if urls := endpointURLs(nt.TransportEndpoints); len(urls) > 0 && !sameStrings(urls, t.TransportEndpoints) {
		t.TransportEndpoints = urls
		changed = true
	}
	if amount := signedAmount(nt.Kind, nt.Amount); nt.Amount != 0 && amount != t.Amount {
		t.Amount = amount
		changed = true
	}
	moved, err := svc.advanceTransfer(ctx, tx, t, nt.Status, sourceNode)
	if err != nil {
		return false, err
	}
	if !changed && !moved {
		return false, nil
	}
	t.UpdatedAt = svc.nextUpdatedAt(t.UpdatedAt, unixOrZero(nt.UpdatedAt))
	if _, err := tx.NewUpdate().Model(t).WherePK().ExcludeColumn("idx", "created_at").Exec(ctx); err != nil {
		return false, err
	}
	return moved, nil
}

func btcTransactionStatus(t nodegw.Transaction) string {
	if t.Confirmed {
		return common.TransferStatusSettled
	}
	return common.TransferStatusWaitingConfirmations
}

func btcTransactionDirection(t nodegw.Transaction) string {
	switch {
	case !t.Confirmed:
		return common.TransferDirectionOnGoing
	case t.Type == nodegw.TransactionTypeCreateUtxos:
		return common.TransferDirectionInternal
	case t.Sent > 0:
		return common.TransferDirectionSent
	default:
		return common.TransferDirectionReceived
	}
}

func btcTransactionKind(t nodegw.Transaction) string {
	if t.Sent > 0 {
		return common.TransferKindSend
	}
	return common.TransferKindReceiveWitness
}

// mergeBtcTransactions keeps one BITCOIN ledger row per wallet transaction,
// keyed by txid. A sent row the node has not listed yet keeps waiting; the
// broadcast can still show up in a later cycle.
func (svc *RgbHubService) mergeBtcTransactions(ctx context.Context, tx bun.Tx, transactions []nodegw.Transaction, cs *changeSet) error {
	rows := []models.OnchainTransfer{}
	if err := tx.NewSelect().Model(&rows).Where("asset_id = ?", common.BitcoinAssetID).Order("idx ASC").Scan(ctx); err != nil {
		return err
	}
	byTxid := map[string]*models.OnchainTransfer{}
	for i := range rows {
		if rows[i].Txid != "" {
			byTxid[rows[i].Txid] = &rows[i]
		}
	}
	seen := map[string]bool{}
	for _, nt := range transactions {
		if nt.Txid == "" || seen[nt.Txid] {
			continue
		}
		seen[nt.Txid] = true
		status := btcTransactionStatus(nt)
		direction := btcTransactionDirection(nt)
		amount := int64(nt.Received) - int64(nt.Sent)
		confirmedAt := unixOrZero(nt.ConfirmedAt)

		local := byTxid[nt.Txid]
		if local == nil {
			createdAt := confirmedAt
			if createdAt.IsZero() {
				createdAt = svc.now()
			}
			row := &models.OnchainTransfer{
				AssetID:          common.BitcoinAssetID,
				Kind:             btcTransactionKind(nt),
				Amount:           amount,
				Status:           status,
				Direction:        direction,
				Txid:             nt.Txid,
				MinConfirmations: common.DefaultMinConfirmations,
				CreatedAt:        createdAt,
				UpdatedAt:        createdAt,
			}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return err
			}
			if err := svc.recordCreated(ctx, tx, models.TransferEventTypeOnchain, transferReference(row.Idx), row.AssetID, row.Status, sourceNode); err != nil {
				return err
			}
			cs.transfer(row)
			continue
		}
		changed := false
		if local.Direction != direction {
			local.Direction = direction
			changed = true
		}
		if local.Amount != amount && amount != 0 {
			local.Amount = amount
			changed = true
		}
		moved, err := svc.advanceTransfer(ctx, tx, local, status, sourceNode)
		if err != nil {
			return err
		}
		if !changed && !moved {
			continue
		}
		local.UpdatedAt = svc.nextUpdatedAt(local.UpdatedAt, confirmedAt)
		if _, err := tx.NewUpdate().Model(local).WherePK().ExcludeColumn("idx", "created_at").Exec(ctx); err != nil {
			return err
		}
		if moved {
			cs.transfer(local)
		}
	}
	return nil
}

// mergePayments mirrors lightning payments by payment hash.
func (svc *RgbHubService) mergePayments(ctx context.Context, tx bun.Tx, payments []nodegw.Payment, startedAt time.Time, cs *changeSet) error {
	rows := []models.LnPayment{}
	if err := tx.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return err
	}
	byHash := map[string]*models.LnPayment{}
	for i := range rows {
		byHash[rows[i].PaymentHash] = &rows[i]
	}
	seen := map[string]bool{}
	for _, np := range payments {
		if np.PaymentHash == "" || seen[np.PaymentHash] {
			continue
		}
		seen[np.PaymentHash] = true
		local := byHash[np.PaymentHash]
		if local == nil {
			createdAt := unixOrZero(np.CreatedAt)
			if createdAt.IsZero() {
				createdAt = svc.now()
			}
			updatedAt := unixOrZero(np.UpdatedAt)
			if updatedAt.Before(createdAt) {
				updatedAt = createdAt
			}
			row := &models.LnPayment{
				PaymentHash: np.PaymentHash,
				PayeePubkey: np.PayeePubkey,
				AssetID:     np.AssetID,
				AssetAmount: np.AssetAmount,
				AmtMsat:     np.AmtMsat,
				Inbound:     np.Inbound,
				Status:      np.Status,
				CreatedAt:   createdAt,
				UpdatedAt:   updatedAt,
			}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return err
			}
			if err := svc.recordCreated(ctx, tx, models.TransferEventTypeLightning, row.PaymentHash, row.AssetID, row.Status, sourceNode); err != nil {
				return err
			}
			cs.payment(row)
			continue
		}
		changed := false
		if local.PayeePubkey == "" && np.PayeePubkey != "" {
			local.PayeePubkey = np.PayeePubkey
			changed = true
		}
		if local.AssetID == "" && np.AssetID != "" {
			local.AssetID = np.AssetID
			changed = true
		}
		if np.AssetAmount != 0 && local.AssetAmount != np.AssetAmount {
			local.AssetAmount = np.AssetAmount
			changed = true
		}
		if np.AmtMsat != 0 && local.AmtMsat != np.AmtMsat {
			local.AmtMsat = np.AmtMsat
			changed = true
		}
		moved, err := svc.advancePayment(ctx, tx, local, np.Status, sourceNode)
		if err != nil {
			return err
		}
		if !changed && !moved {
			continue
		}
		local.UpdatedAt = svc.nextUpdatedAt(local.UpdatedAt, unixOrZero(np.UpdatedAt))
		if _, err := tx.NewUpdate().Model(local).WherePK().ExcludeColumn("id", "created_at").Exec(ctx); err != nil {
			return err
		}
		if moved {
			cs.payment(local)
		}
	}

	for i := range rows {
		p := &rows[i]
		if seen[p.PaymentHash] || p.Status != common.PaymentStatusPending || p.ExpiresAt.IsZero() || !p.ExpiresAt.Before(startedAt) {
			continue
		}
		if _, err := svc.advancePayment(ctx, tx, p, common.PaymentStatusFailed, sourceExpired); err != nil {
			return err
		}
		p.UpdatedAt = svc.nextUpdatedAt(p.UpdatedAt, time.Time{})
		if _, err := tx.NewUpdate().Model(p).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		cs.payment(p)
	}
	return nil
}

func channelFromNode(nc nodegw.Channel) models.Channel {
	return models.Channel{
		ChannelID:           nc.ChannelID,
		PeerPubkey:          nc.PeerPubkey,
		PeerAlias:           nc.PeerAlias,
		FundingTxid:         nc.FundingTxid,
		ShortChannelID:      nc.ShortChannelID,
		AssetID:             nc.AssetID,
		CapacitySat:         nc.CapacitySat,
		LocalBalanceMsat:    nc.LocalBalanceMsat,
		RemoteBalanceMsat:   nc.RemoteBalanceMsat,
		AssetLocalAmount:    nc.AssetLocalAmount,
		AssetRemoteAmount:   nc.AssetRemoteAmount,
		InboundBalanceMsat:  nc.InboundBalanceMsat,
		OutboundBalanceMsat: nc.OutboundBalanceMsat,
		IsUsable:            nc.IsUsable && nc.Ready && nc.Status == common.ChannelStatusOpen,
		Ready:               nc.Ready,
		Public:              nc.Public,
		Status:              nc.Status,
	}
}

// sameChannelState compares everything the node controls.
func sameChannelState(a, b models.Channel) bool {
	return a.ChannelID == b.ChannelID &&
		a.PeerAlias == b.PeerAlias &&
		a.FundingTxid == b.FundingTxid &&
		a.ShortChannelID == b.ShortChannelID &&
		a.CapacitySat == b.CapacitySat &&
		a.LocalBalanceMsat == b.LocalBalanceMsat &&
		a.RemoteBalanceMsat == b.RemoteBalanceMsat &&
		a.AssetLocalAmount == b.AssetLocalAmount &&
		a.AssetRemoteAmount == b.AssetRemoteAmount &&
		a.InboundBalanceMsat == b.InboundBalanceMsat &&
		a.OutboundBalanceMsat == b.OutboundBalanceMsat &&
		a.IsUsable == b.IsUsable &&
		a.Ready == b.Ready &&
		a.Public == b.Public &&
		a.Status == b.Status &&
		!a.Provisional && !b.Provisional
}

// mergeChannels mirrors the node's channel list. Channels the node stopped
// listing are closed; rows are kept.
func (svc *RgbHubService) mergeChannels(ctx context.Context, tx bun.Tx, channels []nodegw.Channel, issued map[string]uint64, startedAt time.Time, cs *changeSet) error {
	rows := []models.Channel{}
	if err := tx.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return err
	}
	byID := map[string]*models.Channel{}
	for i := range rows {
		byID[rows[i].ChannelID] = &rows[i]
	}
	matched := map[int64]bool{}
	findProvisional := func(nc nodegw.Channel) *models.Channel {
		for i := range rows {
			row := &rows[i]
			if row.Provisional && !matched[row.ID] && row.Status != common.ChannelStatusClosed && row.PeerPubkey == nc.PeerPubkey && row.AssetID == nc.AssetID {
				return row
			}
		}
		return nil
	}

	for _, nc := range channels {
		if supply, ok := issued[nc.AssetID]; ok && nc.AssetLocalAmount+nc.AssetRemoteAmount > supply {
			svc.Logger.Warnf("Channel asset amounts exceed issued supply channel_id:%v asset_id:%v local:%v remote:%v supply:%v", nc.ChannelID, nc.AssetID, nc.AssetLocalAmount, nc.AssetRemoteAmount, supply)
		}
		local := byID[nc.ChannelID]
		if local != nil && matched[local.ID] {
			continue
		}
		if local == nil {
			local = findProvisional(nc)
		}
		next := channelFromNode(nc)
		if local == nil {
			if _, err := tx.NewInsert().Model(&next).Exec(ctx); err != nil {
				return err
			}
			matched[next.ID] = true
			cs.channel(&next)
			continue
		}
		matched[local.ID] = true
		if local.Status == common.ChannelStatusClosed {
			continue
		}
		next.Status = mergeChannelStatus(local.Status, nc.Status)
		if next.Status != common.ChannelStatusOpen {
			next.IsUsable = false
		}
		if sameChannelState(*local, next) {
			continue
		}
		statusChanged := local.Status != next.Status || local.IsUsable != next.IsUsable || local.Ready != next.Ready || local.ChannelID != next.ChannelID
		next.ID = local.ID
		next.CreatedAt = local.CreatedAt
		next.Provisional = false
		next.ClosedAt = local.ClosedAt
		if next.Status == common.ChannelStatusClosed {
			next.ClosedAt = bun.NullTime{Time: svc.now()}
		}
		if _, err := tx.NewUpdate().Model(&next).WherePK().ExcludeColumn("id", "created_at").Exec(ctx); err != nil {
			return err
		}
		*local = next
		if statusChanged {
			cs.channel(local)
		}
		if next.Ready && !next.IsUsable && next.Status == common.ChannelStatusOpen {
			svc.Logger.Infof("Channel ready but not usable yet, usability follows on a later cycle channel_id:%v cause:node has not unblocked the channel", next.ChannelID)
		}
	}

	for i := range rows {
		row := &rows[i]
		if matched[row.ID] || row.Status == common.ChannelStatusClosed || !row.CreatedAt.Before(startedAt) {
			continue
		}
		row.Status = common.ChannelStatusClosed
		row.IsUsable = false
		row.Ready = false
		row.ClosedAt = bun.NullTime{Time: svc.now()}
		if _, err := tx.NewUpdate().Model(row).Column("status", "is_usable", "ready", "closed_at", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		svc.Logger.Infof("Channel no longer listed by the node, closed channel_id:%v", row.ChannelID)
		cs.channel(row)
	}
	return nil
}
