package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/lib/keyring"
	"github.com/getAlby/rgbhub.go/nodegw/nodegwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

const testWalletPassword = "Tr0ub4dor&3-wallet-passphrase"

func enableKeyring(t *testing.T, svc *RgbHubService) {
	t.Helper()
	on := true
	_, err := svc.UpdateSettings(context.Background(), &SettingsUpdate{KeyringEnabled: &on})
	require.NoError(t, err)
}

func TestInitWalletRejectsWeakPassword(t *testing.T) {
	svc, gw := newTestService(t)

	_, err := svc.InitWallet(context.Background(), "1234")
	assertKind(t, err, common.KindValidation)
	assert.Equal(t, 0, gw.Calls("Init"))
}

func TestInitWalletWithoutKeyring(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.InitWallet(context.Background(), testWalletPassword)
	require.NoError(t, err)
	assert.Equal(t, nodegwtest.DefaultMnemonic, result.Mnemonic)
	assert.False(t, result.KeyringStored)
}

func TestInitWalletStoresSecrets(t *testing.T) {
	svc, _ := newTestService(t)
	enableKeyring(t, svc)

	result, err := svc.InitWallet(context.Background(), testWalletPassword)
	require.NoError(t, err)
	assert.True(t, result.KeyringStored)

	mnemonic, err := svc.Keyring.Get(keyring.MnemonicKey(common.NetworkRegtest))
	require.NoError(t, err)
	assert.Equal(t, nodegwtest.DefaultMnemonic, mnemonic)
}

func TestInitWalletKeyringUnavailable(t *testing.T) {
	svc, _ := newTestService(t)
	enableKeyring(t, svc)
	gokeyring.MockInitWithError(errors.New("no secret service"))

	result, err := svc.InitWallet(context.Background(), testWalletPassword)
	assertKind(t, err, common.KindKeyringUnavailable)
	require.NotNil(t, result)
	assert.Equal(t, nodegwtest.DefaultMnemonic, result.Mnemonic)
}

func TestUnlockWalletFromKeyring(t *testing.T) {
	svc, gw := newTestService(t)

	err := svc.UnlockWallet(context.Background(), "")
	assertKind(t, err, common.KindValidation)

	enableKeyring(t, svc)
	_, err = svc.InitWallet(context.Background(), testWalletPassword)
	require.NoError(t, err)

	require.NoError(t, svc.UnlockWallet(context.Background(), ""))
	assert.Equal(t, 1, gw.Calls("Unlock"))
	assert.Equal(t, 1, gw.Calls("RefreshTransfers"))
}

func TestRestoreWallet(t *testing.T) {
	svc, gw := newTestService(t)

	err := svc.RestoreWallet(context.Background(), "abandon abandon abandon", testWalletPassword, "")
	assertKind(t, err, common.KindValidation)
	assert.Equal(t, 0, gw.Calls("Restore"))

	require.NoError(t, svc.RestoreWallet(context.Background(), "  "+nodegwtest.DefaultMnemonic+"\n", testWalletPassword, ""))
	assert.Equal(t, 1, gw.Calls("Restore"))
}

func TestBackupWallet(t *testing.T) {
	svc, gw := newTestService(t)

	path, err := svc.BackupWallet(context.Background(), "", testWalletPassword, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(svc.Config.BackupDir, "rgbhub-regtest.backup"), path)
	assert.Equal(t, 1, gw.Calls("Backup"))

	_, err = svc.BackupWallet(context.Background(), "../escape.backup", testWalletPassword, "")
	assertKind(t, err, common.KindValidation)
	_, err = svc.BackupWallet(context.Background(), "..", testWalletPassword, "")
	assertKind(t, err, common.KindValidation)
	_, err = svc.BackupWallet(context.Background(), "mine.backup", "weak", "")
	assertKind(t, err, common.KindValidation)
	assert.Equal(t, 1, gw.Calls("Backup"))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Login("")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	on := true
	_, err = svc.UpdateSettings(context.Background(), &SettingsUpdate{AskAuthForAppLogin: &on, Password: testNativePassword})
	require.NoError(t, err)

	_, err = svc.Login("")
	assertKind(t, err, common.KindNativeAuthRejected)
	token, err = svc.Login(testNativePassword)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
