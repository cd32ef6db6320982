package fees

import (
	"context"
	"errors"
	"testing"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/stretchr/testify/assert"
)

type stubNode struct {
	rate   float64
	err    error
	blocks []uint16
}

func (s *stubNode) EstimateFee(ctx context.Context, blocks uint16) (float64, error) {
	s.blocks = append(s.blocks, blocks)
	return s.rate, s.err
}

type stubIndexer struct {
	fee      float32
	err      error
	pingErr  error
	target   uint32
	shutdown bool
}

func (s *stubIndexer) GetFee(ctx context.Context, target uint32) (float32, error) {
	s.target = target
	return s.fee, s.err
}

func (s *stubIndexer) Ping(ctx context.Context) error {
	return s.pingErr
}

func (s *stubIndexer) Shutdown() {
	s.shutdown = true
}

func dialerFor(indexer *stubIndexer) Dialer {
	return func(ctx context.Context, url string) (IndexerClient, error) {
		return indexer, nil
	}
}

func TestBlocksForSpeed(t *testing.T) {
	for speed, blocks := range map[string]uint16{"slow": 17, "medium": 7, "FAST": 1} {
		got, err := BlocksForSpeed(speed)
		assert.NoError(t, err)
		assert.Equal(t, blocks, got)
	}
	_, err := BlocksForSpeed("turbo")
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestEstimateFromNode(t *testing.T) {
	node := &stubNode{rate: 2.3}
	estimator := NewEstimator(node, &Config{}, nil)
	rate, err := estimator.EstimateSpeed(context.Background(), common.FeeSpeedMedium)
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), rate)
	assert.Equal(t, []uint16{7}, node.blocks)

	node.rate = 0.2
	rate, err = estimator.Estimate(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), rate)
}

func TestEstimateFallsBackToIndexer(t *testing.T) {
	node := &stubNode{err: common.NewError(common.KindNodeUnavailable, common.KeyRequestTimeout)}
	indexer := &stubIndexer{fee: 0.0002}
	estimator := NewEstimator(node, &Config{ElectrumURL: "tcp://127.0.0.1:50001"}, nil).WithDialer(dialerFor(indexer))

	rate, err := estimator.EstimateSpeed(context.Background(), common.FeeSpeedSlow)
	assert.NoError(t, err)
	assert.Equal(t, uint64(20), rate)
	assert.Equal(t, uint32(17), indexer.target)
	assert.True(t, indexer.shutdown)
}

func TestEstimateKeepsNodeErrorWhenIndexerFails(t *testing.T) {
	nodeErr := common.NewError(common.KindNodeUnavailable, common.KeyRequestTimeout)
	estimator := NewEstimator(&stubNode{err: nodeErr}, &Config{ElectrumURL: "tcp://127.0.0.1:50001"}, nil).
		WithDialer(dialerFor(&stubIndexer{fee: -1}))
	_, err := estimator.Estimate(context.Background(), 7)
	assert.Equal(t, common.KindNodeUnavailable, common.KindOf(err))
}

func TestEstimateNoFallbackForOtherErrors(t *testing.T) {
	indexer := &stubIndexer{fee: 0.0002}
	estimator := NewEstimator(&stubNode{err: common.NewError(common.KindUnknown, "boom")}, &Config{ElectrumURL: "x"}, nil).
		WithDialer(dialerFor(indexer))
	_, err := estimator.Estimate(context.Background(), 7)
	assert.Error(t, err)
	assert.Equal(t, uint32(0), indexer.target)
}

func TestPing(t *testing.T) {
	estimator := NewEstimator(&stubNode{}, &Config{}, nil).WithDialer(dialerFor(&stubIndexer{}))
	assert.NoError(t, estimator.Ping(context.Background(), "ssl://electrum.example:50002"))

	estimator.WithDialer(dialerFor(&stubIndexer{pingErr: errors.New("eof")}))
	err := estimator.Ping(context.Background(), "ssl://electrum.example:50002")
	assert.Equal(t, common.KindConfigInvalid, common.KindOf(err))
}

func TestBtcPerKbToSatPerVbyte(t *testing.T) {
	assert.InDelta(t, 1.0, BtcPerKbToSatPerVbyte(0.00001), 1e-9)
}
