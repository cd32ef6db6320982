package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubsubTopics(t *testing.T) {
	ps := NewPubsub()
	balances := make(chan common.Event, 1)
	all := make(chan common.Event, 4)
	ps.Subscribe(common.EventBalanceChanged, balances)
	allID := ps.Subscribe(common.EventTopicAll, all)
	assert.Equal(t, 2, ps.SubscriberCount())

	assert.Equal(t, 0, ps.Publish(common.Event{Type: common.EventBalanceChanged}))
	assert.Equal(t, 0, ps.Publish(common.Event{Type: common.EventTransferUpdated}))
	assert.Len(t, balances, 1)
	assert.Len(t, all, 2)

	// the balance subscriber is full now
	assert.Equal(t, 1, ps.Publish(common.Event{Type: common.EventBalanceChanged}))

	ps.Unsubscribe(allID, common.EventTopicAll)
	assert.Equal(t, 1, ps.SubscriberCount())
	ps.Unsubscribe(allID, common.EventTopicAll)
}

func TestWebhookReceivesEvents(t *testing.T) {
	svc, _ := newTestService(t)
	received := make(chan common.Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event := common.Event{}
		if err := json.NewDecoder(r.Body).Decode(&event); err == nil {
			received <- event
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartWebhookSubscription(ctx, server.URL)
	require.Eventually(t, func() bool { return svc.EventPubSub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	svc.RequestShutdown("SIGINT")

	select {
	case event := <-received:
		assert.Equal(t, common.EventShutdownRequested, event.Type)
		assert.Equal(t, "SIGINT", event.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestEncodeEvent(t *testing.T) {
	svc, _ := newTestService(t)
	buf := new(bytes.Buffer)
	event := common.Event{ID: "1", Type: common.EventTransferUpdated, AssetID: "rgb:a", TransferIdx: 3}

	require.NoError(t, svc.encodeEvent(context.Background(), buf, event))

	decoded := common.Event{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, event.TransferIdx, decoded.TransferIdx)
	assert.Equal(t, event.AssetID, decoded.AssetID)
}

func TestEventFromHistory(t *testing.T) {
	onchain := EventFromHistory(&models.TransferEvent{
		ID:        7,
		Type:      models.TransferEventTypeOnchain,
		Reference: "12",
		AssetID:   "rgb:a",
		ToStatus:  common.TransferStatusSettled,
		Source:    sourceNode,
	})
	assert.Equal(t, "transfer_event:7", onchain.ID)
	assert.Equal(t, common.EventTransferUpdated, onchain.Type)
	assert.Equal(t, int64(12), onchain.TransferIdx)
	assert.Empty(t, onchain.PaymentHash)
	assert.Equal(t, common.TransferStatusSettled, onchain.Status)

	lightning := EventFromHistory(&models.TransferEvent{
		ID:        8,
		Type:      models.TransferEventTypeLightning,
		Reference: "abcd",
		ToStatus:  common.PaymentStatusSuccess,
	})
	assert.Equal(t, "abcd", lightning.PaymentHash)
	assert.Zero(t, lightning.TransferIdx)
}

func TestRefreshRoutineStopsOnCancel(t *testing.T) {
	svc, gw := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.StartRefreshRoutine(ctx)
	}()

	require.Eventually(t, func() bool { return gw.Calls("RefreshTransfers") > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("refresh routine did not stop")
	}
	// waits for a cycle still in flight
	_, _ = svc.Refresh(context.Background())
}
