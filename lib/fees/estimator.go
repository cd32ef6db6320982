package fees

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/checksum0/go-electrum/electrum"
	"github.com/getAlby/rgbhub.go/common"
	"github.com/labstack/gommon/log"
)

// NodeSource is the part of the node gateway used for fee estimation.
// The node answers in sat/vB.
type NodeSource interface {
	EstimateFee(ctx context.Context, blocks uint16) (float64, error)
}

// IndexerClient is the subset of an electrum client used here. Fees are
// returned in BTC/kB.
type IndexerClient interface {
	GetFee(ctx context.Context, target uint32) (float32, error)
	Ping(ctx context.Context) error
	Shutdown()
}

type Dialer func(ctx context.Context, url string) (IndexerClient, error)

type Estimator struct {
	node    NodeSource
	config  *Config
	dial    Dialer
	logger  Logger
	timeout time.Duration
}

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

func NewEstimator(node NodeSource, config *Config, logger Logger) *Estimator {
	timeout := time.Duration(config.ElectrumTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New("fees")
	}
	return &Estimator{
		node:    node,
		config:  config,
		dial:    DialElectrum,
		logger:  logger,
		timeout: timeout,
	}
}

// WithDialer replaces the electrum dialer, used by tests.
func (e *Estimator) WithDialer(dial Dialer) *Estimator {
	e.dial = dial
	return e
}

func BlocksForSpeed(speed string) (uint16, error) {
	switch strings.ToLower(speed) {
	case common.FeeSpeedSlow:
		return common.FeeBlocksSlow, nil
	case common.FeeSpeedMedium:
		return common.FeeBlocksMedium, nil
	case common.FeeSpeedFast:
		return common.FeeBlocksFast, nil
	default:
		return 0, common.NewError(common.KindValidation, common.KeyInvalidFeeRate)
	}
}

// EstimateSpeed returns the fee rate for a named speed in whole sat/vB.
func (e *Estimator) EstimateSpeed(ctx context.Context, speed string) (uint64, error) {
	blocks, err := BlocksForSpeed(speed)
	if err != nil {
		return 0, err
	}
	return e.Estimate(ctx, blocks)
}

// Estimate asks the node first. The indexer is only consulted when the node
// is unavailable and an electrum url is configured.
func (e *Estimator) Estimate(ctx context.Context, blocks uint16) (uint64, error) {
	rate, err := e.node.EstimateFee(ctx, blocks)
	if err == nil {
		return roundFeeRate(rate), nil
	}
	if common.KindOf(err) != common.KindNodeUnavailable || e.config.ElectrumURL == "" {
		return 0, err
	}
	e.logger.Infof("Node fee estimation unavailable, falling back to indexer blocks:%v error:%v", blocks, err)
	btcPerKb, indexerErr := e.estimateFromIndexer(ctx, e.config.ElectrumURL, blocks)
	if indexerErr != nil {
		e.logger.Errorf("Indexer fee estimation failed blocks:%v error:%v", blocks, indexerErr)
		return 0, err
	}
	return roundFeeRate(BtcPerKbToSatPerVbyte(btcPerKb)), nil
}

// Ping checks that an electrum indexer answers at url.
func (e *Estimator) Ping(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	client, err := e.dial(ctx, url)
	if err != nil {
		return common.WrapError(common.KindConfigInvalid, common.KeyInvalidIndexerURL, err)
	}
	defer client.Shutdown()
	if err = client.Ping(ctx); err != nil {
		return common.WrapError(common.KindConfigInvalid, common.KeyInvalidIndexerURL, err)
	}
	return nil
}

func (e *Estimator) estimateFromIndexer(ctx context.Context, url string, blocks uint16) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	client, err := e.dial(ctx, url)
	if err != nil {
		return 0, err
	}
	defer client.Shutdown()
	fee, err := client.GetFee(ctx, uint32(blocks))
	if err != nil {
		return 0, err
	}
	if fee <= 0 {
		return 0, common.NewError(common.KindNodeUnavailable, common.KeyConnectionFailed)
	}
	return float64(fee), nil
}

func BtcPerKbToSatPerVbyte(btcPerKb float64) float64 {
	return btcPerKb * 1e8 / 1000
}

func roundFeeRate(rate float64) uint64 {
	if rate < 1 {
		return 1
	}
	return uint64(math.Ceil(rate))
}

// DialElectrum connects to tcp://host:port or ssl://host:port. A bare
// host:port is dialed over tcp.
func DialElectrum(ctx context.Context, url string) (IndexerClient, error) {
	switch {
	case strings.HasPrefix(url, "ssl://"):
		return electrum.NewClientSSL(ctx, strings.TrimPrefix(url, "ssl://"), nil)
	case strings.HasPrefix(url, "tcp://"):
		return electrum.NewClientTCP(ctx, strings.TrimPrefix(url, "tcp://"))
	default:
		return electrum.NewClientTCP(ctx, url)
	}
}
