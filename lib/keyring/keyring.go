package keyring

import (
	"errors"
	"strconv"
	"strings"

	"github.com/getAlby/rgbhub.go/common"
	gokeyring "github.com/zalando/go-keyring"
)

const (
	ServiceName = "rgbhub"

	NativeAuthEnabledKey  = "native_auth_enabled"
	NativeLoginEnabledKey = "native_login_enabled"
)

func MnemonicKey(network string) string {
	return "mnemonic_" + strings.ToLower(network)
}

func WalletPasswordKey(network string) string {
	return "wallet_password_" + strings.ToLower(network)
}

// Store keeps wallet secrets in the OS keyring. Backend failures come back as
// KEYRING_UNAVAILABLE, missing entries as NOT_FOUND.
type Store struct {
	service string
}

func NewStore(service string) *Store {
	if service == "" {
		service = ServiceName
	}
	return &Store{service: service}
}

func (s *Store) Get(key string) (string, error) {
	value, err := gokeyring.Get(s.service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return "", common.NewError(common.KindNotFound, common.KeyKeyringUnavailable)
	}
	if err != nil {
		return "", common.WrapError(common.KindKeyringUnavailable, common.KeyKeyringUnavailable, err)
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	if err := gokeyring.Set(s.service, key, value); err != nil {
		return common.WrapError(common.KindKeyringUnavailable, common.KeyKeyringUnavailable, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	err := gokeyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return common.WrapError(common.KindKeyringUnavailable, common.KeyKeyringUnavailable, err)
	}
	return nil
}

func (s *Store) GetBool(key string) (bool, error) {
	value, err := s.Get(key)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return strconv.ParseBool(value)
}

func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// StoreWalletSecrets writes the mnemonic and the wallet password of a network.
// On failure nothing is left half written.
func (s *Store) StoreWalletSecrets(network, mnemonic, password string) error {
	if err := s.Set(MnemonicKey(network), mnemonic); err != nil {
		return err
	}
	if err := s.Set(WalletPasswordKey(network), password); err != nil {
		_ = s.Delete(MnemonicKey(network))
		return err
	}
	return nil
}

func (s *Store) DeleteWalletSecrets(network string) error {
	if err := s.Delete(MnemonicKey(network)); err != nil {
		return err
	}
	return s.Delete(WalletPasswordKey(network))
}
