package service

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db"
	"github.com/getAlby/rgbhub.go/db/migrations"
	"github.com/getAlby/rgbhub.go/lib/security"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/getAlby/rgbhub.go/nodegw/nodegwtest"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"
	"github.com/ziflex/lecho/v3"
	gokeyring "github.com/zalando/go-keyring"
)

const testNativePassword = "correct horse battery staple 42"

// newTestService wires a service over a private in-memory database and a
// fake node gateway.
func newTestService(t *testing.T) (*RgbHubService, *nodegwtest.Gateway) {
	t.Helper()
	gokeyring.MockInit()
	ctx := context.Background()

	dbConn, err := db.Open(&db.Config{
		DatabaseUri: fmt.Sprintf("file:%s?mode=memory&cache=shared", ksuid.New().String()),
	})
	require.NoError(t, err)
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	hashed, err := security.HashPassword(testNativePassword)
	require.NoError(t, err)
	c := &Config{
		JWTSecret:                    []byte("SECRET"),
		JWTAccessTokenExpiry:         3600,
		RefreshInterval:              1,
		RefreshMaxBackoff:            2,
		RefreshWorkers:               2,
		MediaCacheSize:               8,
		BackupDir:                    t.TempDir(),
		KeyringService:               "rgbhub-test",
		NativeAuthenticationPassword: hashed,
	}
	gw := nodegwtest.New()
	svc, err := NewRgbHubService(c, dbConn, gw, common.NetworkRegtest, lecho.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() {
		svc.Close()
		dbConn.Close()
	})
	return svc, gw
}

func fundWallet(gw *nodegwtest.Gateway, sats uint64) {
	gw.Update(func(g *nodegwtest.Gateway) {
		g.Btc.Vanilla = nodegw.Balance{Settled: sats, Future: sats, Spendable: sats}
	})
}

// issueTestAsset issues an RGB20 asset on a funded wallet.
func issueTestAsset(t *testing.T, svc *RgbHubService, gw *nodegwtest.Gateway, amount uint64) string {
	t.Helper()
	fundWallet(gw, 100000000)
	asset, err := svc.IssueRGB20(context.Background(), &IssueRGB20Params{Ticker: "TTK", Name: "Tether", Amount: amount})
	require.NoError(t, err)
	return asset.AssetID
}

func subscribe(svc *RgbHubService, topic string) chan common.Event {
	ch := make(chan common.Event, 128)
	svc.EventPubSub.Subscribe(topic, ch)
	return ch
}

func drain(ch chan common.Event) []common.Event {
	events := []common.Event{}
	for {
		select {
		case e := <-ch:
			events = append(events, e)
		default:
			return events
		}
	}
}

func assertKind(t *testing.T, err error, kind common.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, common.KindOf(err), err.Error())
}

func TestStartPublishesEmptySnapshot(t *testing.T) {
	svc, _ := newTestService(t)

	snapshot := svc.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Version)
	assert.Equal(t, common.NetworkRegtest, snapshot.Network)
	assert.Empty(t, snapshot.Assets)
	assert.Contains(t, snapshot.Balances, common.BitcoinAssetID)
	assert.Equal(t, DefaultSettings(common.NetworkRegtest), svc.CurrentSettings())
}

func TestRequestShutdownEmitsEvent(t *testing.T) {
	svc, _ := newTestService(t)
	events := subscribe(svc, common.EventShutdownRequested)

	svc.RequestShutdown("SIGTERM")

	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, "SIGTERM", got[0].Message)
	assert.NotEmpty(t, got[0].ID)
}
