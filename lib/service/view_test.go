package service

import (
	"testing"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overviewSnapshot() *Snapshot {
	now := time.Now()
	return &Snapshot{
		Network: common.NetworkRegtest,
		Assets: []models.Asset{
			{AssetID: "rgb:active", Name: "Active", Kind: common.AssetKindRGB20},
			{AssetID: "rgb:spent", Name: "Spent", Kind: common.AssetKindRGB20},
			{AssetID: "rgb:channel", Name: "Channel", Kind: common.AssetKindRGB25},
		},
		Balances: map[string]Balance{
			common.BitcoinAssetID: {OnChain: OnChainBalance{Total: 1000, Spendable: 1000, Future: 1000}},
			"rgb:active":          {OnChain: OnChainBalance{Total: 10, Spendable: 10, Future: 10}},
			"rgb:spent":           {},
			"rgb:channel":         {Lightning: LightningBalance{Total: 5, Spendable: 5}},
		},
		Transfers: []models.OnchainTransfer{
			{Idx: 1, AssetID: "rgb:active", Status: common.TransferStatusSettled, UpdatedAt: now.Add(-time.Hour)},
			{Idx: 2, AssetID: "rgb:spent", Status: common.TransferStatusSettled, UpdatedAt: now.Add(-30 * time.Minute)},
			{Idx: 3, AssetID: "rgb:active", Status: common.TransferStatusSettled, UpdatedAt: now.Add(-2 * time.Hour)},
		},
		Payments: []models.LnPayment{
			{PaymentHash: "aa", AssetID: "rgb:channel", Status: common.PaymentStatusSuccess, UpdatedAt: now},
			{PaymentHash: "bb", Status: common.PaymentStatusSuccess, UpdatedAt: now.Add(-time.Minute)},
		},
	}
}

func assetIDs(rows []AssetRow) []string {
	ids := []string{}
	for _, row := range rows {
		ids = append(ids, row.AssetID)
	}
	return ids
}

func TestAssetOverviewOrdering(t *testing.T) {
	rows := overviewSnapshot().AssetOverview(false)

	assert.Equal(t, []string{common.BitcoinAssetID, "rgb:channel", "rgb:spent", "rgb:active"}, assetIDs(rows))
	assert.Equal(t, "rBTC", rows[0].Ticker)
	require.NotNil(t, rows[0].LastTransferAt)
}

func TestAssetOverviewHidesExhausted(t *testing.T) {
	snapshot := overviewSnapshot()
	rows := snapshot.AssetOverview(true)

	assert.Equal(t, []string{common.BitcoinAssetID, "rgb:channel", "rgb:active"}, assetIDs(rows))

	// hidden assets stay reachable directly
	detail, err := snapshot.AssetDetail("rgb:spent")
	require.NoError(t, err)
	assert.Len(t, detail.OnChainTransfers, 1)
}

func TestAssetDetailHistory(t *testing.T) {
	snapshot := overviewSnapshot()

	detail, err := snapshot.AssetDetail("rgb:active")
	require.NoError(t, err)
	require.Len(t, detail.OnChainTransfers, 2)
	assert.Equal(t, int64(1), detail.OnChainTransfers[0].Idx)
	assert.Equal(t, int64(3), detail.OnChainTransfers[1].Idx)
	assert.Empty(t, detail.LightningTransfers)

	detail, err = snapshot.AssetDetail(common.BitcoinAssetID)
	require.NoError(t, err)
	require.Len(t, detail.LightningTransfers, 1)
	assert.Equal(t, "bb", detail.LightningTransfers[0].PaymentHash)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "lightning", detail.History[0].Rail)

	_, err = snapshot.AssetDetail("rgb:unknown")
	assertKind(t, err, common.KindNotFound)
}

func TestComputeBalanceLightning(t *testing.T) {
	svc, _ := newTestService(t)
	channels := []models.Channel{
		{AssetID: "rgb:a", AssetLocalAmount: 40, LocalBalanceMsat: 3000000, OutboundBalanceMsat: 2000000, IsUsable: true, Ready: true, Status: common.ChannelStatusOpen},
		{AssetID: "rgb:a", AssetLocalAmount: 60, LocalBalanceMsat: 1000000, OutboundBalanceMsat: 1000000, Ready: true, Status: common.ChannelStatusOpen},
		{AssetID: "rgb:b", AssetLocalAmount: 7, LocalBalanceMsat: 1000000, OutboundBalanceMsat: 500000, IsUsable: true, Ready: true, Status: common.ChannelStatusOpen},
	}

	a := svc.computeBalance("rgb:a", nodegw.Balance{Settled: 500, Future: 500, Spendable: 500}, channels)
	assert.Equal(t, LightningBalance{Total: 100, Spendable: 40}, a.Lightning)
	assert.Equal(t, OnChainBalance{Total: 500, Spendable: 500, Future: 500}, a.OnChain)

	btc := svc.computeBalance(common.BitcoinAssetID, nodegw.Balance{}, channels)
	assert.Equal(t, LightningBalance{Total: 5000, Spendable: 2500}, btc.Lightning)
}

func TestIsExhausted(t *testing.T) {
	assert.True(t, isExhausted(Balance{}))
	assert.False(t, isExhausted(Balance{OnChain: OnChainBalance{Future: 1}}))
	assert.False(t, isExhausted(Balance{Lightning: LightningBalance{Total: 1}}))
}
