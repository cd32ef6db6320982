package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool lets concurrent publishers reuse encoding buffers.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"

	refreshRoutingKey = "refresh.request"
)

type (
	SubscribeToEventsFunc = func() (events <-chan common.Event, unsubscribe func(), err error)
	EncodeEventFunc       = func(ctx context.Context, w io.Writer, event common.Event) error
)

// RefreshRequest is the body consumed from the refresh exchange.
type RefreshRequest struct {
	Reason string `json:"reason"`
}

type Client interface {
	// StartPublishEvents forwards every hub event to the event exchange
	// under the routing key "event.<type>".
	StartPublishEvents(context.Context, SubscribeToEventsFunc, EncodeEventFunc) error
	// SubscribeToRefreshRequests triggers a refresh cycle for every
	// message routed to the refresh queue.
	SubscribeToRefreshRequests(context.Context, RefreshService) error
	// Close will close all connections to rabbitmq
	Close() error
}

type RefreshService interface {
	RefreshRequested(ctx context.Context, reason string) error
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger *lecho.Logger

	eventExchange            string
	refreshExchange          string
	refreshConsumerQueueName string
}

type ClientOption = func(client *DefaultClient)

func WithEventExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.eventExchange = exchange
	}
}

func WithRefreshExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.refreshExchange = exchange
	}
}

func WithRefreshConsumerQueueName(name string) ClientOption {
	return func(client *DefaultClient) {
		client.refreshConsumerQueueName = name
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func NewClient(amqpClient AMQPClient, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,

		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),

		eventExchange:            "rgbhub_event",
		refreshExchange:          "rgbhub_refresh",
		refreshConsumerQueueName: "rgbhub_refresh_consumer",
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// Dial connects to the broker and returns a client using that connection.
func Dial(uri string, options ...ClientOption) (Client, error) {
	probe := &DefaultClient{}
	for _, opt := range options {
		opt(probe)
	}
	amqpClient, err := DialAMQP(uri, probe.logger)
	if err != nil {
		return nil, err
	}
	return NewClient(amqpClient, options...)
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

func (client *DefaultClient) SubscribeToRefreshRequests(ctx context.Context, svc RefreshService) error {
	deliveryChan, err := client.amqpClient.Listen(ctx, client.refreshExchange, refreshRoutingKey, client.refreshConsumerQueueName)
	if err != nil {
		return err
	}

	client.logger.Info("Starting refresh request consumer")
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case delivery, ok := <-deliveryChan:
			if !ok {
				return fmt.Errorf("disconnected from RabbitMQ")
			}

			var req RefreshRequest
			if err := json.Unmarshal(delivery.Body, &req); err != nil {
				captureErr(client.logger, err)
				// malformed requests are dropped, never requeued
				if err := delivery.Nack(false, false); err != nil {
					client.logger.Error(err)
				}
				continue
			}

			if err := svc.RefreshRequested(ctx, req.Reason); err != nil {
				captureErr(client.logger, err)
				if err := delivery.Nack(false, false); err != nil {
					client.logger.Error(err)
				}
				continue
			}

			if err := delivery.Ack(false); err != nil {
				client.logger.Error(err)
			}
		}
	}
}

func (client *DefaultClient) StartPublishEvents(ctx context.Context, subscribeFunc SubscribeToEventsFunc, payloadFunc EncodeEventFunc) error {
	err := client.amqpClient.ExchangeDeclare(
		client.eventExchange,
		// topic exchanges let consumers bind to single event types
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	events, unsubscribe, err := subscribeFunc()
	if err != nil {
		return err
	}
	defer unsubscribe()

	client.logger.Info("Starting rabbitmq event publisher")
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := client.publishEvent(ctx, event, payloadFunc); err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

func (client *DefaultClient) publishEvent(ctx context.Context, event common.Event, payloadFunc EncodeEventFunc) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	if err := payloadFunc(ctx, payload, event); err != nil {
		return err
	}

	err := client.amqpClient.PublishWithContext(ctx,
		client.eventExchange,
		RoutingKey(event),
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			MessageId:   event.ID,
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		return err
	}

	client.logger.Debugf("Published event to rabbitmq type:%s id:%s", event.Type, event.ID)
	return nil
}

func RoutingKey(event common.Event) string {
	return "event." + event.Type
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
