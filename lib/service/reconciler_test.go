package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/getAlby/rgbhub.go/nodegw/nodegwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func transferHistory(t *testing.T, svc *RgbHubService, idx int64) []models.TransferEvent {
	t.Helper()
	history := []models.TransferEvent{}
	err := svc.DB.NewSelect().Model(&history).
		Where("type = ?", models.TransferEventTypeOnchain).
		Where("reference = ?", transferReference(idx)).
		Order("id ASC").
		Scan(context.Background())
	require.NoError(t, err)
	return history
}

func ledgerTransfer(t *testing.T, svc *RgbHubService, idx int64) models.OnchainTransfer {
	t.Helper()
	row := models.OnchainTransfer{}
	err := svc.DB.NewSelect().Model(&row).Where("idx = ?", idx).Scan(context.Background())
	require.NoError(t, err)
	return row
}

func TestRefreshIsIdempotent(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	issueTestAsset(t, svc, gw, 1000)
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	before := svc.Snapshot()
	events := subscribe(svc, common.EventTopicAll)

	after, err := svc.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.Version+1, after.Version)
	assert.Equal(t, before.Balances, after.Balances)
	require.Len(t, after.Transfers, len(before.Transfers))
	for i := range before.Transfers {
		assert.Equal(t, before.Transfers[i].Status, after.Transfers[i].Status)
		assert.True(t, before.Transfers[i].UpdatedAt.Equal(after.Transfers[i].UpdatedAt))
	}
	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, common.EventRefreshCycleCompleted, got[0].Type)
}

func TestRefreshRecordsEverySkippedStatus(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	assetID := issueTestAsset(t, svc, gw, 1000)

	received, err := svc.Receive(ctx, &ReceiveParams{AssetID: assetID})
	require.NoError(t, err)
	created := ledgerTransfer(t, svc, received.Transfer.Idx)

	events := subscribe(svc, common.EventTransferUpdated)
	gw.Update(func(g *nodegwtest.Gateway) {
		g.Transfers[assetID] = append(g.Transfers[assetID], nodegw.Transfer{
			Idx:         received.Transfer.BatchTransferIdx,
			AssetID:     assetID,
			Kind:        common.TransferKindReceiveBlind,
			Status:      common.TransferStatusSettled,
			RecipientID: received.RecipientID,
			Amount:      50,
			// older than the local row, the ledger must still move forward
			UpdatedAt: 1,
		})
	})
	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	settled := ledgerTransfer(t, svc, received.Transfer.Idx)
	assert.Equal(t, common.TransferStatusSettled, settled.Status)
	assert.Equal(t, int64(50), settled.Amount)
	assert.True(t, settled.UpdatedAt.After(created.UpdatedAt))

	history := transferHistory(t, svc, received.Transfer.Idx)
	require.Len(t, history, 3)
	assert.Equal(t, common.TransferStatusWaitingCounterparty, history[0].ToStatus)
	assert.Equal(t, common.TransferStatusWaitingConfirmations, history[1].ToStatus)
	assert.Equal(t, common.TransferStatusSettled, history[2].ToStatus)
	assert.Equal(t, sourceNode, history[2].Source)

	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, received.Transfer.Idx, got[0].TransferIdx)
	assert.Equal(t, common.TransferStatusSettled, got[0].Status)
}

func TestRefreshIgnoresBackwardMoves(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	assetID := issueTestAsset(t, svc, gw, 1000)
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	gw.Update(func(g *nodegwtest.Gateway) {
		g.Transfers[assetID][0].Status = common.TransferStatusWaitingCounterparty
	})
	snapshot, err := svc.Refresh(ctx)
	require.NoError(t, err)

	require.Len(t, snapshot.Transfers, 1)
	assert.Equal(t, common.TransferStatusSettled, snapshot.Transfers[0].Status)
}

func TestRefreshPrunesReceiveUnknownToNode(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	assetID := issueTestAsset(t, svc, gw, 1000)
	received, err := svc.Receive(ctx, &ReceiveParams{AssetID: assetID})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, common.TransferStatusFailed, ledgerTransfer(t, svc, received.Transfer.Idx).Status)
	history := transferHistory(t, svc, received.Transfer.Idx)
	require.Len(t, history, 2)
	assert.Equal(t, sourcePruned, history[1].Source)
}

func TestRefreshExpiresAssetlessReceive(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	gw.Update(func(g *nodegwtest.Gateway) {
		g.OnReceive = func(req *nodegw.ReceiveOnChainRequest) (*nodegw.RgbInvoice, error) {
			return &nodegw.RgbInvoice{
				RecipientID:         "utxob:expired",
				Invoice:             "rgb:~/~/utxob:expired",
				BatchTransferIdx:    42,
				ExpirationTimestamp: time.Now().Add(-time.Minute).Unix(),
			}, nil
		}
	})
	received, err := svc.Receive(ctx, &ReceiveParams{})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, common.TransferStatusFailed, ledgerTransfer(t, svc, received.Transfer.Idx).Status)
	history := transferHistory(t, svc, received.Transfer.Idx)
	require.Len(t, history, 2)
	assert.Equal(t, sourceExpired, history[1].Source)
}

func TestRefreshExpiresPendingPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	payment := &models.LnPayment{
		PaymentHash: "00ff",
		Status:      common.PaymentStatusPending,
		AmtMsat:     3000000,
		ExpiresAt:   bun.NullTime{Time: time.Now().Add(-time.Minute)},
	}
	_, err := svc.DB.NewInsert().Model(payment).Exec(ctx)
	require.NoError(t, err)

	snapshot, err := svc.Refresh(ctx)
	require.NoError(t, err)

	require.Len(t, snapshot.Payments, 1)
	assert.Equal(t, common.PaymentStatusFailed, snapshot.Payments[0].Status)
}

func TestRefreshMirrorsNodePayments(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	gw.Update(func(g *nodegwtest.Gateway) {
		g.Payments = []nodegw.Payment{{
			PaymentHash: "abcd",
			AmtMsat:     5000000,
			Inbound:     true,
			Status:      common.PaymentStatusPending,
		}}
	})
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	events := subscribe(svc, common.EventTransferUpdated)
	gw.Update(func(g *nodegwtest.Gateway) {
		g.Payments[0].Status = common.PaymentStatusSuccess
	})
	snapshot, err := svc.Refresh(ctx)
	require.NoError(t, err)

	require.Len(t, snapshot.Payments, 1)
	assert.Equal(t, common.PaymentStatusSuccess, snapshot.Payments[0].Status)
	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, "abcd", got[0].PaymentHash)
}

func TestRefreshNodeUnavailable(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	before := svc.Snapshot()
	events := subscribe(svc, common.EventNodeUnavailable)
	gw.Fail("ListAssets", common.NewError(common.KindNodeUnavailable, common.KeyConnectionFailed))

	_, err := svc.Refresh(ctx)
	assertKind(t, err, common.KindNodeUnavailable)

	assert.Same(t, before, svc.Snapshot())
	got := drain(events)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].Message)
}

func TestRefreshProxyUnreachableStillCompletes(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	before := svc.Snapshot()
	events := subscribe(svc, common.EventRefreshCycleCompleted)
	gw.Fail("RefreshTransfers", common.NewError(common.KindProxyUnreachable, common.KeyProxyUnreachable))

	snapshot, err := svc.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.Version+1, snapshot.Version)
	assert.Len(t, drain(events), 1)
}

func TestRefreshPublishesBalanceChanges(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	assetID := issueTestAsset(t, svc, gw, 1000)
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	events := subscribe(svc, common.EventBalanceChanged)
	gw.Update(func(g *nodegwtest.Gateway) {
		g.Balances[assetID] = nodegw.Balance{Settled: 1000, Future: 1200, Spendable: 1000}
	})
	snapshot, err := svc.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(1200), snapshot.Balance(assetID).OnChain.Future)
	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, assetID, got[0].AssetID)
}

func TestConcurrentRefreshes(t *testing.T) {
	svc, gw := newTestService(t)
	issueTestAsset(t, svc, gw, 1000)
	start := svc.Snapshot().Version

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	end := svc.Snapshot().Version
	assert.Greater(t, end, start)
	assert.LessOrEqual(t, end, start+8)
	assert.Len(t, svc.Snapshot().Transfers, 1)
}

func TestTransferPath(t *testing.T) {
	assert.Equal(t, []string{common.TransferStatusWaitingConfirmations, common.TransferStatusSettled},
		transferPath(common.TransferStatusWaitingCounterparty, common.TransferStatusSettled))
	assert.Equal(t, []string{common.TransferStatusFailed},
		transferPath(common.TransferStatusWaitingConfirmations, common.TransferStatusFailed))
	assert.Nil(t, transferPath(common.TransferStatusSettled, common.TransferStatusFailed))
	assert.Nil(t, transferPath(common.TransferStatusWaitingConfirmations, common.TransferStatusWaitingCounterparty))
	assert.Nil(t, transferPath(common.TransferStatusSettled, common.TransferStatusSettled))
	assert.Equal(t, []string{common.PaymentStatusSuccess}, paymentPath(common.PaymentStatusPending, common.PaymentStatusSuccess))
	assert.Nil(t, paymentPath(common.PaymentStatusFailed, common.PaymentStatusSuccess))
}

func TestMergeChannelStatus(t *testing.T) {
	tests := []struct {
		local, remote, want string
	}{
		{common.ChannelStatusOpening, common.ChannelStatusOpen, common.ChannelStatusOpen},
		{common.ChannelStatusClosing, common.ChannelStatusOpen, common.ChannelStatusClosing},
		{common.ChannelStatusForceClosing, common.ChannelStatusClosing, common.ChannelStatusForceClosing},
		{common.ChannelStatusClosing, common.ChannelStatusForceClosing, common.ChannelStatusForceClosing},
		{common.ChannelStatusClosing, common.ChannelStatusClosed, common.ChannelStatusClosed},
		{common.ChannelStatusClosed, common.ChannelStatusOpen, common.ChannelStatusClosed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mergeChannelStatus(tt.local, tt.remote), "%s -> %s", tt.local, tt.remote)
	}
}
