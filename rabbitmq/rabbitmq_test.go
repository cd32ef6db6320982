package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/rabbitmq"
	"github.com/getAlby/rgbhub.go/rabbitmq/mock_rabbitmq"
	"github.com/golang/mock/gomock"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/ziflex/lecho/v3"
)

//go:generate mockgen -destination=./mock_rabbitmq/rabbitmq.go github.com/getAlby/rgbhub.go/rabbitmq RefreshService,AMQPClient

// acknowledger records how each delivery tag was settled.
type acknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	settled chan struct{}
}

func newAcknowledger() *acknowledger {
	return &acknowledger{settled: make(chan struct{}, 8)}
}

func (a *acknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	a.acked = append(a.acked, tag)
	a.mu.Unlock()
	a.settled <- struct{}{}
	return nil
}

func (a *acknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.mu.Lock()
	a.nacked = append(a.nacked, tag)
	a.mu.Unlock()
	a.settled <- struct{}{}
	return nil
}

func (a *acknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *acknowledger) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-a.settled:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d deliveries settled", i, n)
		}
	}
}

func TestRefreshRequestConsumer(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	refreshService := mock_rabbitmq.NewMockRefreshService(ctrl)
	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)

	client, err := rabbitmq.NewClient(amqpClient,
		rabbitmq.WithRefreshExchange("test_refresh"),
		rabbitmq.WithRefreshConsumerQueueName("test_refresh_consumer"),
		rabbitmq.WithLogger(lecho.New(io.Discard)),
	)
	assert.NoError(t, err)

	ch := make(chan amqp.Delivery, 3)
	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Eq("test_refresh"), gomock.Eq("refresh.request"), gomock.Eq("test_refresh_consumer")).
		Times(1).
		Return(ch, nil)

	refreshService.EXPECT().
		RefreshRequested(gomock.Any(), gomock.Eq("invoice paid")).
		Times(1).
		Return(nil)
	refreshService.EXPECT().
		RefreshRequested(gomock.Any(), gomock.Eq("node down")).
		Times(1).
		Return(common.NewError(common.KindNodeUnavailable, common.KeyConnectionFailed))

	ack := newAcknowledger()
	ok, _ := json.Marshal(&rabbitmq.RefreshRequest{Reason: "invoice paid"})
	failing, _ := json.Marshal(&rabbitmq.RefreshRequest{Reason: "node down"})
	ch <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: ok}
	ch <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("{not json")}
	ch <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: failing}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- client.SubscribeToRefreshRequests(ctx, refreshService)
	}()

	ack.wait(t, 3)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2, 3}, ack.nacked)
}

func TestRefreshRequestConsumerDisconnect(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	client, err := rabbitmq.NewClient(amqpClient, rabbitmq.WithLogger(lecho.New(io.Discard)))
	assert.NoError(t, err)

	ch := make(chan amqp.Delivery)
	close(ch)
	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ch, nil)

	err = client.SubscribeToRefreshRequests(context.Background(), mock_rabbitmq.NewMockRefreshService(ctrl))
	assert.Error(t, err)
}

func TestPublishEvents(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	client, err := rabbitmq.NewClient(amqpClient,
		rabbitmq.WithEventExchange("test_event"),
		rabbitmq.WithLogger(lecho.New(io.Discard)),
	)
	assert.NoError(t, err)

	events := make(chan common.Event, 2)
	unsubscribed := make(chan struct{})
	subscribe := func() (<-chan common.Event, func(), error) {
		return events, func() { close(unsubscribed) }, nil
	}
	encode := func(ctx context.Context, w io.Writer, event common.Event) error {
		return json.NewEncoder(w).Encode(event)
	}

	amqpClient.EXPECT().
		ExchangeDeclare(gomock.Eq("test_event"), gomock.Eq("topic"), gomock.Eq(true), gomock.Eq(false), gomock.Eq(false), gomock.Eq(false), gomock.Nil()).
		Return(nil)

	published := make(chan amqp.Publishing, 2)
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Eq("test_event"), gomock.Eq("event.balance_changed"), gomock.Eq(false), gomock.Eq(false), gomock.Any()).
		DoAndReturn(func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
			// the body buffer is reused once this returns
			msg.Body = append([]byte(nil), msg.Body...)
			published <- msg
			return nil
		})
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Eq("test_event"), gomock.Eq("event.transfer_updated"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("channel closed"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- client.StartPublishEvents(ctx, subscribe, encode)
	}()

	events <- common.Event{ID: "evt-1", Type: common.EventBalanceChanged, AssetID: "rgb:a"}
	events <- common.Event{ID: "evt-2", Type: common.EventTransferUpdated, TransferIdx: 4}

	select {
	case msg := <-published:
		assert.Equal(t, "evt-1", msg.MessageId)
		assert.Equal(t, "application/json", msg.ContentType)
		decoded := common.Event{}
		assert.NoError(t, json.Unmarshal(msg.Body, &decoded))
		assert.Equal(t, "rgb:a", decoded.AssetID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}

	// a failed publish does not stop the publisher
	close(events)
	assert.NoError(t, <-done)
	<-unsubscribed
	cancel()
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "event.channel_state_changed", rabbitmq.RoutingKey(common.Event{Type: common.EventChannelStateChanged}))
}
