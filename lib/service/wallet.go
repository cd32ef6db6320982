package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/lib/keyring"
	"github.com/getAlby/rgbhub.go/lib/security"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/tyler-smith/go-bip39"
)

type InitResult struct {
	Mnemonic string `json:"mnemonic"`
	// KeyringStored is false when the secrets must be preserved by hand
	KeyringStored bool `json:"keyring_stored"`
}

// InitWallet creates the node wallet. When the keyring is enabled the
// mnemonic and password are stored there; if that fails the mnemonic is
// still returned together with a KEYRING_UNAVAILABLE error so the caller
// can have it copied by hand.
func (svc *RgbHubService) InitWallet(ctx context.Context, password string) (*InitResult, error) {
	if err := security.ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	mnemonic, err := svc.Gateway.Init(afterDispatch(ctx), password)
	if err != nil {
		return nil, err
	}
	result := &InitResult{Mnemonic: mnemonic}
	if !svc.CurrentSettings().KeyringEnabled {
		return result, nil
	}
	if err := svc.Keyring.StoreWalletSecrets(svc.Network, mnemonic, password); err != nil {
		svc.Logger.Errorf("Keyring unavailable, wallet secrets must be kept by hand error:%v", err)
		return result, common.WrapError(common.KindKeyringUnavailable, common.KeyKeyringUnavailable, err)
	}
	result.KeyringStored = true
	return result, nil
}

// UnlockWallet unlocks the node with the connection settings of the store.
// An empty password is read from the keyring when enabled.
func (svc *RgbHubService) UnlockWallet(ctx context.Context, password string) error {
	settings := svc.CurrentSettings()
	if password == "" {
		if !settings.KeyringEnabled {
			return common.NewError(common.KindValidation, common.KeyBadArguments)
		}
		stored, err := svc.Keyring.Get(keyring.WalletPasswordKey(svc.Network))
		if err != nil {
			return common.WrapError(common.KindKeyringUnavailable, common.KeyKeyringUnavailable, err)
		}
		password = stored
	}
	err := svc.Gateway.Unlock(afterDispatch(ctx), &nodegw.UnlockRequest{
		Password:         password,
		BitcoindUsername: svc.Config.BitcoindRPCUser,
		BitcoindPassword: svc.Config.BitcoindRPCPassword,
		BitcoindHost:     settings.BitcoindHost,
		BitcoindPort:     settings.BitcoindPort,
		IndexerURL:       settings.IndexerURL,
		ProxyEndpoint:    settings.ProxyEndpoint,
		AnnounceAddress:  settings.AnnounceAddress,
		AnnounceAlias:    settings.AnnounceAlias,
	})
	if err != nil {
		return err
	}
	svc.Logger.Infof("Wallet unlocked network:%v", svc.Network)
	if _, err := svc.Refresh(afterDispatch(ctx)); err != nil {
		svc.Logger.Errorf("Refresh after unlock failed error:%v", err)
	}
	return nil
}

func (svc *RgbHubService) LockWallet(ctx context.Context) error {
	return svc.Gateway.Lock(afterDispatch(ctx))
}

// BackupWallet writes an encrypted backup into the configured backup
// directory. Backup passwords must pass the entropy policy.
func (svc *RgbHubService) BackupWallet(ctx context.Context, name, password, authPassword string) (string, error) {
	if err := security.ValidatePasswordStrength(password); err != nil {
		return "", err
	}
	path, err := svc.backupPath(name)
	if err != nil {
		return "", err
	}
	if err := svc.authorize(authPassword); err != nil {
		return "", err
	}
	if err := svc.Gateway.Backup(afterDispatch(ctx), path, password); err != nil {
		return "", err
	}
	svc.Logger.Infof("Wallet backup written path:%v", path)
	return path, nil
}

func (svc *RgbHubService) RestoreWallet(ctx context.Context, mnemonic, password, name string) error {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return common.NewError(common.KindValidation, common.KeyInvalidMnemonic)
	}
	path, err := svc.backupPath(name)
	if err != nil {
		return err
	}
	err = svc.Gateway.Restore(afterDispatch(ctx), &nodegw.RestoreRequest{
		Mnemonic:   mnemonic,
		Password:   password,
		BackupPath: path,
	})
	if err != nil {
		return err
	}
	if svc.CurrentSettings().KeyringEnabled {
		if err := svc.Keyring.StoreWalletSecrets(svc.Network, mnemonic, password); err != nil {
			return common.WrapError(common.KindKeyringUnavailable, common.KeyKeyringUnavailable, err)
		}
	}
	return nil
}

// backupPath keeps backups inside the backup directory.
func (svc *RgbHubService) backupPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "rgbhub-" + strings.ToLower(svc.Network) + ".backup"
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", common.NewError(common.KindValidation, common.KeyBadArguments)
	}
	return filepath.Join(svc.Config.BackupDir, name), nil
}
