package rabbitmq

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

const (
	defaultHeartbeat = 10 * time.Second
	defaultLocale    = "en_US"

	msgReconnect = "RECONNECT_DONE"
	msgClose     = "CLOSE"
)

var errPublishDuringReconnect = errors.New("amqp: trying to publish during reconnect")

type listenerMsg = string

// AMQPClient is the slice of a broker connection the hub needs: topic
// listening with automatic reconnects, and publishing.
type AMQPClient interface {
	Listen(ctx context.Context, exchange string, routingKey string, queueName string, options ...AMQPListenOptions) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

type defaultAMQPClient struct {
	uri string

	mu   sync.RWMutex
	conn *amqp.Connection
	// consumers and publishers get separate channels so flow control on
	// one side does not stall the other
	consumeChannel  *amqp.Channel
	publishChannel  *amqp.Channel
	notifyCloseChan chan *amqp.Error

	listenersMu sync.Mutex
	listeners   []chan listenerMsg
	reconFlag   atomic.Bool

	logger *lecho.Logger
}

func DialAMQP(uri string, logger *lecho.Logger) (AMQPClient, error) {
	if logger == nil {
		logger = lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		)
	}
	client := &defaultAMQPClient{
		uri:    uri,
		logger: logger,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}

	go client.reconnectionLoop()

	return client, nil
}

func (c *defaultAMQPClient) connect() error {
	conn, err := amqp.DialConfig(c.uri, amqp.Config{
		Heartbeat: defaultHeartbeat,
		Locale:    defaultLocale,
		Dial:      amqp.DefaultDial(time.Second * 3),
	})
	if err != nil {
		return err
	}

	consumeChannel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	publishChannel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	notifyCloseChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(notifyCloseChan)

	c.mu.Lock()
	c.conn = conn
	c.consumeChannel = consumeChannel
	c.publishChannel = publishChannel
	c.notifyCloseChan = notifyCloseChan
	c.mu.Unlock()

	return nil
}

func (c *defaultAMQPClient) broadcast(msg listenerMsg) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	for _, listener := range c.listeners {
		listener <- msg
	}
}

func (c *defaultAMQPClient) reconnectionLoop() {
	for {
		c.mu.RLock()
		notify := c.notifyCloseChan
		c.mu.RUnlock()

		amqpError, ok := <-notify
		if !ok || amqpError == nil {
			// graceful Close
			return
		}
		c.logger.Error(amqpError)

		retry := backoff.NewExponentialBackOff()
		retry.MaxInterval = time.Second * 10
		retry.MaxElapsedTime = time.Minute

		c.reconFlag.Store(true)
		c.logger.Info("amqp: trying to reconnect...")
		if err := backoff.Retry(c.connect, retry); err != nil {
			c.logger.Errorf("amqp: giving up reconnecting error:%v", err)
			c.broadcast(msgClose)
			return
		}
		c.reconFlag.Store(false)
		c.logger.Info("amqp: succesfully reconnected")

		c.broadcast(msgReconnect)
	}
}

func (c *defaultAMQPClient) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn.Close()
}

func (c *defaultAMQPClient) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	// short lived management channel
	c.mu.RLock()
	ch, err := c.conn.Channel()
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

type ListenOptions struct {
	Durable    bool
	AutoDelete bool
	Internal   bool
	Wait       bool
	Exclusive  bool
	AutoAck    bool
}

type AMQPListenOptions = func(opts ListenOptions) ListenOptions

func WithDurable(durable bool) AMQPListenOptions {
	return func(opts ListenOptions) ListenOptions {
		opts.Durable = durable
		return opts
	}
}

func WithAutoDelete(autoDelete bool) AMQPListenOptions {
	return func(opts ListenOptions) ListenOptions {
		opts.AutoDelete = autoDelete
		return opts
	}
}

func WithExclusive(exclusive bool) AMQPListenOptions {
	return func(opts ListenOptions) ListenOptions {
		opts.Exclusive = exclusive
		return opts
	}
}

func WithAutoAck(autoAck bool) AMQPListenOptions {
	return func(opts ListenOptions) ListenOptions {
		opts.AutoAck = autoAck
		return opts
	}
}

// Listen wraps the raw delivery channel so consumers survive reconnects:
// after a successful reconnect the queue is consumed again from the new
// channel, and when reconnecting is abandoned the returned channel closes.
func (c *defaultAMQPClient) Listen(ctx context.Context, exchange string, routingKey string, queueName string, options ...AMQPListenOptions) (<-chan amqp.Delivery, error) {
	deliveries, err := c.consume(exchange, routingKey, queueName, options...)
	if err != nil {
		return nil, err
	}

	clientChannel := make(chan amqp.Delivery)

	notifyReconnectChan := make(chan listenerMsg, 2)
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, notifyReconnectChan)
	c.listenersMu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case msg := <-notifyReconnectChan:
				switch msg {
				case msgReconnect:
					d, err := c.consume(exchange, routingKey, queueName, options...)
					if err != nil {
						c.logger.Error(err)
						close(clientChannel)
						return
					}
					c.logger.Infof("amqp: consuming routing key %s from new deliveries channel", routingKey)
					deliveries = d
				case msgClose:
					close(clientChannel)
					return
				default:
					c.logger.Warnf("amqp: unrecognized message send to listener: %s", msg)
				}

			case delivery, ok := <-deliveries:
				if !ok {
					// wait for the reconnect notification
					deliveries = nil
					continue
				}
				select {
				case clientChannel <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return clientChannel, nil
}

func (c *defaultAMQPClient) consume(exchange string, routingKey string, queueName string, options ...AMQPListenOptions) (<-chan amqp.Delivery, error) {
	opts := ListenOptions{
		Durable: true,
	}
	for _, opt := range options {
		opts = opt(opts)
	}

	c.mu.RLock()
	ch := c.consumeChannel
	c.mu.RUnlock()

	err := ch.ExchangeDeclare(exchange, "topic", opts.Durable, opts.AutoDelete, opts.Internal, opts.Wait, nil)
	if err != nil {
		return nil, err
	}

	queue, err := ch.QueueDeclare(
		queueName,
		opts.Durable,
		opts.AutoDelete,
		// non exclusive queues spread refresh requests over all hub instances
		opts.Exclusive,
		opts.Wait,
		// caps redeliveries of messages a consumer keeps rejecting
		amqp.Table{
			"delivery-limit": 10,
		},
	)
	if err != nil {
		return nil, err
	}

	if err = ch.QueueBind(queue.Name, routingKey, exchange, opts.Wait, nil); err != nil {
		return nil, err
	}

	return ch.Consume(queue.Name, "", opts.AutoAck, opts.Exclusive, false, opts.Wait, nil)
}

func (c *defaultAMQPClient) PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error {
	if c.reconFlag.Load() {
		retry := backoff.NewExponentialBackOff()
		retry.MaxInterval = time.Second * 10
		retry.MaxElapsedTime = time.Minute

		err := backoff.Retry(func() error {
			if c.reconFlag.Load() {
				return errPublishDuringReconnect
			}
			return nil
		}, backoff.WithContext(retry, ctx))
		if err != nil {
			return err
		}
	}

	c.mu.RLock()
	ch := c.publishChannel
	c.mu.RUnlock()
	return ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}
