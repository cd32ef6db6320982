package service

import (
	"context"
	"errors"
	"testing"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/lib/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryToSeconds(t *testing.T) {
	seconds, err := ExpiryToSeconds(ExpiryTime{Value: 7, Unit: common.ExpiryUnitMinutes})
	require.NoError(t, err)
	assert.Equal(t, uint32(420), seconds)

	seconds, err = ExpiryToSeconds(ExpiryTime{Value: 2, Unit: "Hours"})
	require.NoError(t, err)
	assert.Equal(t, uint32(7200), seconds)

	seconds, err = ExpiryToSeconds(ExpiryTime{Value: 1, Unit: common.ExpiryUnitDays})
	require.NoError(t, err)
	assert.Equal(t, uint32(86400), seconds)

	_, err = ExpiryToSeconds(ExpiryTime{Value: 1, Unit: "weeks"})
	assertKind(t, err, common.KindValidation)
}

func TestDefaultSettingsPerNetwork(t *testing.T) {
	for _, network := range []string{common.NetworkMainnet, common.NetworkTestnet, common.NetworkRegtest} {
		s := DefaultSettings(network)
		assert.NoError(t, s.validate(), network)
		assert.Equal(t, uint64(common.DefaultFeeRate), s.DefaultFeeRate)
		assert.False(t, s.KeyringEnabled)
	}
	assert.NotEqual(t, DefaultSettings(common.NetworkTestnet).IndexerURL, DefaultSettings(common.NetworkRegtest).IndexerURL)
}

func TestUpdateSettingsPersists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	feeRate := uint64(7)
	hide := true
	expiry := ExpiryTime{Value: 3, Unit: common.ExpiryUnitHours}

	updated, err := svc.UpdateSettings(ctx, &SettingsUpdate{
		DefaultFeeRate:      &feeRate,
		HideExhaustedAssets: &hide,
		DefaultExpiryTime:   &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, feeRate, updated.DefaultFeeRate)

	reloaded, err := svc.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, feeRate, reloaded.DefaultFeeRate)
	assert.True(t, reloaded.HideExhaustedAssets)
	assert.Equal(t, expiry, reloaded.DefaultExpiryTime)
	assert.Equal(t, DefaultSettings(common.NetworkRegtest).IndexerURL, reloaded.IndexerURL)
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	zero := uint64(0)
	badExpiry := ExpiryTime{Value: 1, Unit: "weeks"}
	blank := "   "
	zeroConfirmations := uint8(0)

	_, err := svc.UpdateSettings(ctx, &SettingsUpdate{DefaultFeeRate: &zero})
	assertKind(t, err, common.KindValidation)
	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{DefaultExpiryTime: &badExpiry})
	assertKind(t, err, common.KindValidation)
	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{IndexerURL: &blank})
	assertKind(t, err, common.KindValidation)
	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{MinConfirmations: &zeroConfirmations})
	assertKind(t, err, common.KindValidation)

	assert.Equal(t, DefaultSettings(common.NetworkRegtest), svc.CurrentSettings())
}

func TestUpdateIndexerURLRejectedByNode(t *testing.T) {
	svc, gw := newTestService(t)
	gw.Fail("CheckIndexerURL", errors.New("cannot connect to electrum"))
	indexer := "127.0.0.1:1"

	_, err := svc.UpdateSettings(context.Background(), &SettingsUpdate{IndexerURL: &indexer})
	assertKind(t, err, common.KindConfigInvalid)
	assert.NotEqual(t, indexer, svc.CurrentSettings().IndexerURL)
}

func TestUpdateProxyEndpoint(t *testing.T) {
	svc, gw := newTestService(t)
	proxy := "rpcs://proxy.example.com/json-rpc"

	updated, err := svc.UpdateSettings(context.Background(), &SettingsUpdate{ProxyEndpoint: &proxy})
	require.NoError(t, err)
	assert.Equal(t, proxy, updated.ProxyEndpoint)
	assert.Equal(t, 1, gw.Calls("CheckProxyEndpoint"))

	// unchanged endpoints are not probed again
	_, err = svc.UpdateSettings(context.Background(), &SettingsUpdate{ProxyEndpoint: &proxy})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.Calls("CheckProxyEndpoint"))
}

func TestKeyringToggleRequiresNativeAuth(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	on := true
	_, err := svc.UpdateSettings(ctx, &SettingsUpdate{AskAuthForImportantOperations: &on, Password: testNativePassword})
	require.NoError(t, err)

	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{KeyringEnabled: &on, Password: "wrong"})
	assertKind(t, err, common.KindNativeAuthRejected)
	assert.False(t, svc.CurrentSettings().KeyringEnabled)

	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{KeyringEnabled: &on, Password: testNativePassword})
	require.NoError(t, err)
	assert.True(t, svc.CurrentSettings().KeyringEnabled)

	enabled, err := svc.Keyring.GetBool(keyring.NativeAuthEnabledKey)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestAuthTogglesRequireNativePassword(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()
	on, off := true, false

	_, err := svc.UpdateSettings(ctx, &SettingsUpdate{AskAuthForImportantOperations: &on})
	assertKind(t, err, common.KindNativeAuthRejected)
	assert.False(t, svc.CurrentSettings().AskAuthForImportantOperations)

	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{AskAuthForImportantOperations: &on, AskAuthForAppLogin: &on, Password: testNativePassword})
	require.NoError(t, err)

	// switching the gate off needs the password too
	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{AskAuthForImportantOperations: &off})
	assertKind(t, err, common.KindNativeAuthRejected)
	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{AskAuthForAppLogin: &off, Password: "wrong"})
	assertKind(t, err, common.KindNativeAuthRejected)
	assert.True(t, svc.CurrentSettings().AskAuthForImportantOperations)
	assert.True(t, svc.CurrentSettings().AskAuthForAppLogin)

	reloaded, err := svc.LoadSettings(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded.AskAuthForImportantOperations)
	assert.True(t, reloaded.AskAuthForAppLogin)

	fundWallet(gw, 1000)
	_, err = svc.IssueRGB20(ctx, &IssueRGB20Params{Ticker: "TTK", Name: "Tether", Amount: 1})
	assertKind(t, err, common.KindNativeAuthRejected)
	assert.Equal(t, 0, gw.Calls("IssueRGB20"))

	_, err = svc.UpdateSettings(ctx, &SettingsUpdate{AskAuthForImportantOperations: &off, Password: testNativePassword})
	require.NoError(t, err)
	assert.False(t, svc.CurrentSettings().AskAuthForImportantOperations)
}

func TestLoadSettingsSkipsUnknownKeys(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.DB.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES ('legacy_theme', '\"dark\"'), ('min_confirmations', 'oops')")
	require.NoError(t, err)

	settings, err := svc.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(common.NetworkRegtest), settings)
}
