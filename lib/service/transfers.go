package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/invoices"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/uptrace/bun"
)

func transferReference(idx int64) string {
	return strconv.FormatInt(idx, 10)
}

type SendParams struct {
	AssetID          string
	Invoice          string
	Amount           uint64
	FeeRate          *float64
	MinConfirmations *uint8
	Password         string
}

func (svc *RgbHubService) feeRateOrDefault(rate *float64) (float64, error) {
	if rate == nil {
		return float64(svc.CurrentSettings().DefaultFeeRate), nil
	}
	if *rate <= 0 || *rate != math.Trunc(*rate) {
		return 0, common.NewError(common.KindValidation, common.KeyInvalidFeeRate)
	}
	return *rate, nil
}

func (svc *RgbHubService) minConfirmationsOrDefault(value *uint8) (uint8, error) {
	if value == nil {
		return svc.CurrentSettings().MinConfirmations, nil
	}
	if *value == 0 {
		return 0, common.NewError(common.KindValidation, common.KeyInvalidSetting, SettingMinConfirmations)
	}
	return *value, nil
}

// SendOnChain sends an RGB asset to an RGB invoice, or bitcoin to an address
// when AssetID is BITCOIN, and records a SEND row waiting for the
// counterparty.
func (svc *RgbHubService) SendOnChain(ctx context.Context, p *SendParams) (*models.OnchainTransfer, error) {
	assetID := p.AssetID
	if assetID == "" {
		assetID = common.BitcoinAssetID
	}
	feeRate, err := svc.feeRateOrDefault(p.FeeRate)
	if err != nil {
		return nil, err
	}
	minConfirmations, err := svc.minConfirmationsOrDefault(p.MinConfirmations)
	if err != nil {
		return nil, err
	}
	if p.Amount == 0 {
		return nil, common.NewError(common.KindValidation, common.KeyInvalidAmount)
	}

	row := &models.OnchainTransfer{
		AssetID:          assetID,
		Kind:             common.TransferKindSend,
		Amount:           -int64(p.Amount),
		Status:           common.TransferStatusWaitingCounterparty,
		Direction:        common.TransferDirectionSent,
		Invoice:          p.Invoice,
		MinConfirmations: minConfirmations,
	}
	snapshot := svc.Snapshot()
	if assetID == common.BitcoinAssetID {
		if err := invoices.ValidateAddress(p.Invoice, svc.Network); err != nil {
			return nil, err
		}
		row.Direction = common.TransferDirectionOnGoing
	} else {
		if _, err := snapshot.Asset(assetID); err != nil {
			return nil, err
		}
		invoice, err := invoices.ParseRgbInvoice(p.Invoice, svc.now())
		if err != nil {
			return nil, err
		}
		if invoice.ContractID != "" && invoice.ContractID != assetID {
			return nil, common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
		}
		row.RecipientID = invoice.RecipientID
		row.TransportEndpoints = invoice.Endpoints
		if !invoice.Expiry.IsZero() {
			row.Expiration = invoice.Expiry.Unix()
		}
	}
	if p.Amount > snapshot.Balance(assetID).OnChain.Spendable {
		return nil, common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds)
	}
	if err := svc.authorize(p.Password); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dctx := afterDispatch(ctx)
	txid, err := svc.Gateway.SendOnChain(dctx, &nodegw.SendOnChainRequest{
		AssetID:          assetID,
		Invoice:          p.Invoice,
		Amount:           p.Amount,
		FeeRate:          feeRate,
		MinConfirmations: minConfirmations,
	})
	if err != nil {
		svc.Logger.Errorf("On-chain send failed asset_id:%v amount:%v error:%v", assetID, p.Amount, err)
		return nil, err
	}
	row.Txid = txid
	if err := svc.insertTransfer(dctx, row, sourceUser); err != nil {
		return nil, err
	}
	svc.Logger.Infof("On-chain send dispatched idx:%v asset_id:%v amount:%v txid:%v", row.Idx, assetID, p.Amount, txid)
	return row, nil
}

func (svc *RgbHubService) insertTransfer(ctx context.Context, row *models.OnchainTransfer, source string) error {
	cs := &changeSet{}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	prev := svc.Snapshot()
	err := svc.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		return svc.recordCreated(ctx, tx, models.TransferEventTypeOnchain, transferReference(row.Idx), row.AssetID, row.Status, source)
	})
	if err != nil {
		return err
	}
	cs.transfer(row)
	if err := svc.republishLocked(ctx); err != nil {
		return err
	}
	svc.commitEvents(cs, prev, svc.Snapshot())
	return nil
}

type ReceiveParams struct {
	AssetID          string
	MinConfirmations *uint8
	DurationSeconds  *uint32
}

type ReceiveResult struct {
	Invoice     string                  `json:"invoice"`
	RecipientID string                  `json:"recipient_id,omitempty"`
	ExpiresAt   int64                   `json:"expiration_timestamp,omitempty"`
	Transfer    *models.OnchainTransfer `json:"transfer,omitempty"`
}

// Receive creates a blinded RGB invoice, or returns a fresh address for
// bitcoin. RGB receives are recorded as RECEIVE_BLIND rows.
func (svc *RgbHubService) Receive(ctx context.Context, p *ReceiveParams) (*ReceiveResult, error) {
	if p.AssetID == common.BitcoinAssetID {
		address, err := svc.Gateway.Address(ctx)
		if err != nil {
			return nil, err
		}
		return &ReceiveResult{Invoice: address}, nil
	}
	if p.AssetID != "" {
		if _, err := svc.GetAsset(p.AssetID); err != nil {
			return nil, err
		}
	}
	minConfirmations, err := svc.minConfirmationsOrDefault(p.MinConfirmations)
	if err != nil {
		return nil, err
	}
	duration := uint32(common.DefaultRgbInvoiceDurationSec)
	if p.DurationSeconds != nil {
		if *p.DurationSeconds == 0 {
			return nil, common.NewError(common.KindValidation, common.KeyInvalidExpiry)
		}
		duration = *p.DurationSeconds
	}

	dctx := afterDispatch(ctx)
	resp, err := svc.Gateway.ReceiveOnChain(dctx, &nodegw.ReceiveOnChainRequest{
		AssetID:          p.AssetID,
		MinConfirmations: minConfirmations,
		DurationSeconds:  duration,
	})
	if err != nil {
		return nil, err
	}

	row := &models.OnchainTransfer{
		AssetID:          p.AssetID,
		BatchTransferIdx: resp.BatchTransferIdx,
		Kind:             common.TransferKindReceiveBlind,
		Status:           common.TransferStatusWaitingCounterparty,
		Direction:        common.TransferDirectionReceived,
		RecipientID:      resp.RecipientID,
		Invoice:          resp.Invoice,
		MinConfirmations: minConfirmations,
		Expiration:       resp.ExpirationTimestamp,
	}
	if parsed, err := invoices.ParseRgbInvoice(resp.Invoice, svc.now()); err == nil {
		row.TransportEndpoints = parsed.Endpoints
		row.Amount = int64(parsed.Amount)
	} else {
		svc.Logger.Warnf("Could not parse invoice returned by the node error:%v", err)
	}
	if err := svc.insertTransfer(dctx, row, sourceUser); err != nil {
		return nil, err
	}
	return &ReceiveResult{
		Invoice:     resp.Invoice,
		RecipientID: resp.RecipientID,
		ExpiresAt:   resp.ExpirationTimestamp,
		Transfer:    row,
	}, nil
}

type SendLnParams struct {
	Invoice  string
	Password string
}

// SendLn pays a BOLT11 invoice. The PENDING row is written before the HTLC
// is dispatched so the reconciler can resolve it whatever the call returns.
func (svc *RgbHubService) SendLn(ctx context.Context, p *SendLnParams) (*models.LnPayment, error) {
	decoded, err := invoices.DecodeBolt11(p.Invoice, svc.Network, svc.now())
	if err != nil {
		return nil, err
	}
	details, err := svc.Gateway.DecodeLnInvoice(ctx, p.Invoice)
	if err != nil {
		return nil, err
	}
	snapshot := svc.Snapshot()
	if details.AssetID != "" {
		if len(snapshot.UsableChannels(details.AssetID)) == 0 {
			return nil, common.NewError(common.KindNoUsableChannel, common.KeyNoUsableChannel)
		}
		if details.AssetAmount > snapshot.MaxLocalSendAmount(details.AssetID) {
			return nil, common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds)
		}
	} else {
		if len(snapshot.UsableChannels("")) == 0 {
			return nil, common.NewError(common.KindNoUsableChannel, common.KeyNoUsableChannel)
		}
		if decoded.AmtMsat > snapshot.MaxOutboundMsat("") {
			return nil, common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds)
		}
	}
	if err := svc.authorize(p.Password); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	amtMsat := decoded.AmtMsat
	if amtMsat == 0 {
		amtMsat = details.AmtMsat
	}
	row := &models.LnPayment{
		PaymentHash: decoded.PaymentHash,
		PayeePubkey: decoded.Payee,
		AssetID:     details.AssetID,
		AssetAmount: details.AssetAmount,
		AmtMsat:     amtMsat,
		Status:      common.PaymentStatusPending,
		Invoice:     p.Invoice,
		ExpiresAt:   bun.NullTime{Time: decoded.ExpiresAt},
	}
	dctx := afterDispatch(ctx)
	if err := svc.insertPayment(dctx, row); err != nil {
		return nil, err
	}

	result, err := svc.Gateway.SendLn(dctx, p.Invoice)
	if err != nil {
		svc.Logger.Errorf("Lightning payment failed payment_hash:%v error:%v", row.PaymentHash, err)
		if updateErr := svc.settlePayment(dctx, row, common.PaymentStatusFailed, sourceUser); updateErr != nil {
			svc.Logger.Errorf("Failed to record payment failure payment_hash:%v error:%v", row.PaymentHash, updateErr)
		}
		return nil, err
	}
	if isTerminalPayment(result.Status) {
		if err := svc.settlePayment(dctx, row, result.Status, sourceNode); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (svc *RgbHubService) insertPayment(ctx context.Context, row *models.LnPayment) error {
	cs := &changeSet{}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	prev := svc.Snapshot()
	err := svc.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.LnPayment)(nil)).Where("payment_hash = ?", row.PaymentHash).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return common.NewError(common.KindInvalidInvoice, common.KeyInvalidInvoice)
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		return svc.recordCreated(ctx, tx, models.TransferEventTypeLightning, row.PaymentHash, row.AssetID, row.Status, sourceUser)
	})
	if err != nil {
		return err
	}
	cs.payment(row)
	if err := svc.republishLocked(ctx); err != nil {
		return err
	}
	svc.commitEvents(cs, prev, svc.Snapshot())
	return nil
}

func (svc *RgbHubService) settlePayment(ctx context.Context, row *models.LnPayment, status, source string) error {
	cs := &changeSet{}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	prev := svc.Snapshot()
	err := svc.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(row).WherePK().Scan(ctx); err != nil {
			return err
		}
		moved, err := svc.advancePayment(ctx, tx, row, status, source)
		if err != nil || !moved {
			return err
		}
		row.UpdatedAt = svc.nextUpdatedAt(row.UpdatedAt, time.Time{})
		if _, err := tx.NewUpdate().Model(row).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		cs.payment(row)
		return nil
	})
	if err != nil {
		return err
	}
	if err := svc.republishLocked(ctx); err != nil {
		return err
	}
	svc.commitEvents(cs, prev, svc.Snapshot())
	return nil
}

type LnInvoiceParams struct {
	AssetID     string
	AssetAmount uint64
	AmtMsat     *uint64
	ExpirySec   *uint32
}

type LnInvoiceResult struct {
	Invoice string            `json:"invoice"`
	Payment *models.LnPayment `json:"payment"`
}

// CreateLnInvoice validates the amounts against the usable channels and
// records an inbound PENDING payment for the invoice.
func (svc *RgbHubService) CreateLnInvoice(ctx context.Context, p *LnInvoiceParams) (*LnInvoiceResult, error) {
	if p.AssetID == common.BitcoinAssetID {
		p.AssetID = ""
	}
	amtMsat := uint64(common.DefaultLnInvoiceMsat)
	if p.AmtMsat != nil {
		amtMsat = *p.AmtMsat
	}
	var expiry uint32
	if p.ExpirySec != nil {
		expiry = *p.ExpirySec
	} else {
		seconds, err := ExpiryToSeconds(svc.CurrentSettings().DefaultExpiryTime)
		if err != nil {
			return nil, err
		}
		expiry = seconds
	}
	if expiry == 0 {
		return nil, common.NewError(common.KindValidation, common.KeyInvalidExpiry)
	}

	if p.AssetID != "" {
		snapshot := svc.Snapshot()
		if _, err := snapshot.Asset(p.AssetID); err != nil {
			return nil, err
		}
		if len(snapshot.UsableChannels(p.AssetID)) == 0 {
			return nil, common.NewError(common.KindNoUsableChannel, common.KeyNoUsableChannel)
		}
		info, err := svc.nodeInfo(ctx)
		if err != nil {
			return nil, err
		}
		if amtMsat < info.RgbHtlcMinMsat {
			return nil, common.NewError(common.KindMsatOutOfBounds, common.KeyMsatLowerBoundLimit, info.RgbHtlcMinMsat/1000)
		}
		if maxInbound := snapshot.MaxInboundMsat(p.AssetID); amtMsat > maxInbound {
			return nil, common.NewError(common.KindMsatOutOfBounds, common.KeyMsatUpperBoundLimit, maxInbound/1000)
		}
		if maxReceive := snapshot.MaxRemoteReceiveAmount(p.AssetID); p.AssetAmount > maxReceive {
			return nil, common.NewError(common.KindAssetAmountExceedsInbound, common.KeyAssetAmountExceedsInbound, maxReceive)
		}
	}

	dctx := afterDispatch(ctx)
	bolt11, err := svc.Gateway.CreateLnInvoice(dctx, &nodegw.LnInvoiceRequest{
		AssetID:     p.AssetID,
		AssetAmount: p.AssetAmount,
		AmtMsat:     amtMsat,
		ExpirySec:   expiry,
	})
	if err != nil {
		return nil, err
	}

	row := &models.LnPayment{
		AssetID:     p.AssetID,
		AssetAmount: p.AssetAmount,
		AmtMsat:     amtMsat,
		Inbound:     true,
		Status:      common.PaymentStatusPending,
		Invoice:     bolt11,
		ExpiresAt:   bun.NullTime{Time: svc.now().Add(time.Duration(expiry) * time.Second)},
	}
	if decoded, err := invoices.DecodeBolt11(bolt11, svc.Network, svc.now()); err == nil {
		row.PaymentHash = decoded.PaymentHash
		row.PayeePubkey = decoded.Payee
	} else {
		details, err := svc.Gateway.DecodeLnInvoice(dctx, bolt11)
		if err != nil {
			return nil, err
		}
		row.PaymentHash = details.PaymentHash
		row.PayeePubkey = details.PayeePubkey
	}
	if err := svc.insertPayment(dctx, row); err != nil {
		return nil, err
	}
	return &LnInvoiceResult{Invoice: bolt11, Payment: row}, nil
}

type FailTransferResult struct {
	Transfer *models.OnchainTransfer
	Message  string
}

// FailTransfer gives up on a transfer still waiting for the counterparty.
// Any other state is refused without calling the node.
func (svc *RgbHubService) FailTransfer(ctx context.Context, idx int64, password string) (*FailTransferResult, error) {
	row := &models.OnchainTransfer{}
	if err := svc.DB.NewSelect().Model(row).Where("idx = ?", idx).Limit(1).Scan(ctx); err != nil {
		return nil, common.NewError(common.KindNotFound, common.KeyTransferNotFound, idx)
	}
	if row.Status != common.TransferStatusWaitingCounterparty || row.AssetID == common.BitcoinAssetID {
		return nil, common.NewError(common.KindFailTransferNotAllowed, common.KeyFailTransferNotAllowed)
	}
	if row.BatchTransferIdx == 0 && (row.Kind != common.TransferKindSend || row.Txid == "") {
		return nil, common.NewError(common.KindFailTransferNotAllowed, common.KeyFailTransferNotAllowed)
	}
	if err := svc.authorize(password); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dctx := afterDispatch(ctx)
	batchIdx := row.BatchTransferIdx
	if batchIdx == 0 {
		var err error
		if batchIdx, err = svc.sendBatchIdx(dctx, row); err != nil {
			return nil, err
		}
	}
	changed, err := svc.Gateway.FailTransfers(dctx, &nodegw.FailTransfersRequest{
		AssetID:          row.AssetID,
		BatchTransferIdx: batchIdx,
		NoAssetOnly:      row.AssetID == "",
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, common.NewError(common.KindFailTransferNotAllowed, common.KeyFailTransfer)
	}

	cs := &changeSet{}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	prev := svc.Snapshot()
	err = svc.DB.RunInTx(dctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(row).WherePK().Scan(ctx); err != nil {
			return err
		}
		moved, err := svc.advanceTransfer(ctx, tx, row, common.TransferStatusFailed, sourceFailTransfer)
		if err != nil || !moved {
			return err
		}
		row.UpdatedAt = svc.nextUpdatedAt(row.UpdatedAt, time.Time{})
		if _, err := tx.NewUpdate().Model(row).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		cs.transfer(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := svc.republishLocked(dctx); err != nil {
		return nil, err
	}
	svc.commitEvents(cs, prev, svc.Snapshot())
	message, _ := common.Message(common.KeyFailTransferSuccess)
	svc.Logger.Infof("Transfer failed on request idx:%v asset_id:%v", row.Idx, row.AssetID)
	return &FailTransferResult{Transfer: row, Message: message}, nil
}

// sendBatchIdx finds the node index of a send no refresh has bound yet,
// matching the node transfer list by txid.
func (svc *RgbHubService) sendBatchIdx(ctx context.Context, row *models.OnchainTransfer) (int64, error) {
	transfers, err := svc.Gateway.ListTransfers(ctx, row.AssetID)
	if err != nil {
		return 0, err
	}
	for _, nt := range transfers {
		if nt.Kind == common.TransferKindSend && nt.Txid == row.Txid {
			return nt.Idx, nil
		}
	}
	svc.Logger.Warnf("Send not listed by the node idx:%v asset_id:%v txid:%v", row.Idx, row.AssetID, row.Txid)
	return 0, common.NewError(common.KindFailTransferNotAllowed, common.KeyFailTransferNotAllowed)
}
