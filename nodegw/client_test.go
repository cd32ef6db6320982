package nodegw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		WalletMode:       REMOTE_WALLET_MODE,
		Network:          common.NetworkRegtest,
		NodeReadTimeout:  30,
		NodeWriteTimeout: 120,
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testConfig())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestNodeInfoIncludesNetwork(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/nodeinfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pubkey":            "03b79a4bc1ec365524b4fab9a39eb133753646babb5a1da5c4bc94c53110b7795d",
			"rgb_htlc_min_msat": 3000000,
			"num_channels":      2,
		})
	})
	mux.HandleFunc("/networkinfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"network": "Regtest", "height": 150})
	})
	client := newTestClient(t, mux)

	info, err := client.NodeInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.NetworkRegtest, info.Network)
	assert.Equal(t, uint64(3000000), info.RgbHtlcMinMsat)
	assert.Equal(t, 2, info.NumChannels)
}

func TestListAssetsAssignsKinds(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listassets", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"nia": []map[string]interface{}{{"asset_id": "rgb:nia", "ticker": "TTK", "name": "Tether", "issued_supply": 2000}},
			"cfa": []map[string]interface{}{{"asset_id": "rgb:cfa", "name": "Picture", "details": "a cat", "issued_supply": 1}},
		})
	}))

	assets, err := client.ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, common.AssetKindRGB20, assets[0].Kind)
	assert.Equal(t, "TTK", assets[0].Ticker)
	assert.Equal(t, common.AssetKindRGB25, assets[1].Kind)
	assert.Equal(t, "a cat", assets[1].Details)
}

func TestListTransfersConvertsEnums(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "rgb:nia", body["asset_id"])
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"transfers": []map[string]interface{}{{
				"idx":          3,
				"status":       "WaitingCounterparty",
				"kind":         "ReceiveBlind",
				"amount":       10,
				"recipient_id": "utxob:abc",
				"receive_utxo": map[string]interface{}{"txid": "aa", "vout": 1},
				"created_at":   1700000000,
				"updated_at":   1700000001,
			}},
		})
	}))

	transfers, err := client.ListTransfers(context.Background(), "rgb:nia")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, common.TransferStatusWaitingCounterparty, transfers[0].Status)
	assert.Equal(t, common.TransferKindReceiveBlind, transfers[0].Kind)
	assert.Equal(t, "utxob:abc", transfers[0].RecipientID)
	assert.Equal(t, "aa:1", transfers[0].ReceiveUtxo)
	assert.Equal(t, "", transfers[0].ChangeUtxo)
	assert.Equal(t, "rgb:nia", transfers[0].AssetID)
}

func TestNodeErrorIsMappedToKind(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Not enough assets",
			"code":  400,
			"name":  "InsufficientAssets",
		})
	}))

	_, err := client.SendOnChain(context.Background(), &SendOnChainRequest{AssetID: common.BitcoinAssetID, Invoice: "bcrt1q", Amount: 10})
	require.Error(t, err)
	assert.Equal(t, common.KindInsufficientFunds, common.KindOf(err))
	assert.Equal(t, "You have insufficient funds", common.AsError(err).Message())
}

func TestNodeInvalidAmountIsValidation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid amount: 0",
			"code":  400,
			"name":  "InvalidAmount",
		})
	}))

	_, err := client.SendOnChain(context.Background(), &SendOnChainRequest{AssetID: common.BitcoinAssetID, Invoice: "bcrt1q", Amount: 10})
	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.NotEqual(t, common.KindMsatOutOfBounds, common.KindOf(err))
}

func TestUnknownNodeErrorKeepsMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "something odd", "name": "Weird"})
	}))

	_, err := client.ListChannels(context.Background())
	require.Error(t, err)
	assert.Equal(t, common.KindUnknown, common.KindOf(err))
	assert.Contains(t, err.Error(), "something odd")
}

func TestReadTimeoutIsNodeUnavailable(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)
	client.readTimeout = 50 * time.Millisecond

	_, err := client.ListPayments(context.Background())
	require.Error(t, err)
	assert.Equal(t, common.KindNodeUnavailable, common.KindOf(err))
	assert.True(t, common.IsTransient(err))
}

func TestCallerCancellationIsNotNodeUnavailable(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := client.ListChannels(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestConnectionRefusedIsNodeUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", testConfig())
	_, err := client.NodeInfo(context.Background())
	require.Error(t, err)
	assert.Equal(t, common.KindNodeUnavailable, common.KindOf(err))
}

func TestSendAssetDecodesInvoiceFirst(t *testing.T) {
	calls := []string{}
	mux := http.NewServeMux()
	mux.HandleFunc("/decodergbinvoice", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"recipient_id":        "utxob:xyz",
			"transport_endpoints": []string{"rpc://proxy.example/json-rpc"},
		})
	})
	mux.HandleFunc("/sendasset", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		body := sendAssetRequest{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "utxob:xyz", body.RecipientID)
		assert.Equal(t, uint64(5), body.Amount)
		assert.Equal(t, []string{"rpc://proxy.example/json-rpc"}, body.TransportEndpoints)
		writeJSON(w, http.StatusOK, map[string]string{"txid": "deadbeef"})
	})
	client := newTestClient(t, mux)

	txid, err := client.SendOnChain(context.Background(), &SendOnChainRequest{AssetID: "rgb:nia", Invoice: "rgb:inv", Amount: 5, FeeRate: 5, MinConfirmations: 1})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", txid)
	assert.Equal(t, []string{"/decodergbinvoice", "/sendasset"}, calls)
}

func TestListChannelsDerivesRemoteBalance(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"channels": []map[string]interface{}{{
				"channel_id":         "chan1",
				"status":             "Opened",
				"ready":              true,
				"is_usable":          true,
				"capacity_sat":       30010,
				"local_balance_msat": 28616000,
				"asset_id":           "rgb:nia",
				"asset_local_amount": 100,
			}},
		})
	}))

	channels, err := client.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, common.ChannelStatusOpen, channels[0].Status)
	assert.Equal(t, uint64(1394000), channels[0].RemoteBalanceMsat)
	assert.Equal(t, uint64(100), channels[0].AssetLocalAmount)
	assert.Equal(t, uint64(0), channels[0].AssetRemoteAmount)
}

func TestConfigValidate(t *testing.T) {
	c := testConfig()
	assert.NoError(t, c.Validate())
	c.WalletMode = "bogus"
	assert.Error(t, c.Validate())
	c = testConfig()
	c.Network = "SIMNET"
	assert.Error(t, c.Validate())
}
