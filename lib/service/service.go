package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/lib/fees"
	"github.com/getAlby/rgbhub.go/lib/keyring"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/getAlby/rgbhub.go/rabbitmq"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
	"golang.org/x/sync/singleflight"
)

type RgbHubService struct {
	Config         *Config
	DB             *bun.DB
	Gateway        nodegw.Gateway
	Logger         *lecho.Logger
	Fees           *fees.Estimator
	Keyring        *keyring.Store
	EventPubSub    *Pubsub
	RabbitMQClient rabbitmq.Client
	Network        string

	snapshot     atomic.Pointer[Snapshot]
	refreshGroup singleflight.Group
	// stateMu serializes writes to the ledger tables and snapshot swaps
	stateMu      sync.Mutex
	channelLocks keyedMutex
	mediaCache   *lru.Cache
	workers      *workerpool.WorkerPool
	settingsMu   sync.RWMutex
	settings     *Settings
	now          func() time.Time
}

func NewRgbHubService(c *Config, db *bun.DB, gw nodegw.Gateway, network string, logger *lecho.Logger) (*RgbHubService, error) {
	mediaCache, err := lru.New(c.MediaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("media cache: %w", err)
	}
	workers := c.RefreshWorkers
	if workers <= 0 {
		workers = 1
	}
	svc := &RgbHubService{
		Config:      c,
		DB:          db,
		Gateway:     gw,
		Logger:      logger,
		Keyring:     keyring.NewStore(c.KeyringService),
		EventPubSub: NewPubsub(),
		Network:     network,
		mediaCache:  mediaCache,
		workers:     workerpool.New(workers),
		now:         time.Now,
	}
	svc.Fees = fees.NewEstimator(gw, &fees.Config{ElectrumTimeout: 10}, logger)
	svc.snapshot.Store(emptySnapshot(network))
	return svc, nil
}

// WithFees replaces the fee estimator, the electrum fallback needs its own
// config.
func (svc *RgbHubService) WithFees(estimator *fees.Estimator) *RgbHubService {
	svc.Fees = estimator
	return svc
}

// Start loads the persisted state into the first snapshot. It does not talk
// to the node.
func (svc *RgbHubService) Start(ctx context.Context) error {
	if _, err := svc.LoadSettings(ctx); err != nil {
		return err
	}
	svc.stateMu.Lock()
	defer svc.stateMu.Unlock()
	return svc.republishLocked(ctx)
}

func (svc *RgbHubService) Close() error {
	svc.workers.StopWait()
	if svc.RabbitMQClient != nil {
		if err := svc.RabbitMQClient.Close(); err != nil {
			svc.Logger.Errorf("Failed to close rabbitmq client error:%v", err)
		}
	}
	return svc.Gateway.Close()
}

// RequestShutdown surfaces a termination signal to subscribers; the host
// decides what to do with it.
func (svc *RgbHubService) RequestShutdown(reason string) {
	svc.emit(common.Event{Type: common.EventShutdownRequested, Message: reason})
}

// afterDispatch is used for node calls that must complete once sent, even
// when the caller went away.
func afterDispatch(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}
