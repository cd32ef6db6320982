package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/keyring"
	"github.com/uptrace/bun"
)

const (
	SettingDefaultFeeRate                = "default_fee_rate"
	SettingDefaultExpiryTime             = "default_expiry_time"
	SettingMinConfirmations              = "min_confirmations"
	SettingIndexerURL                    = "indexer_url"
	SettingProxyEndpoint                 = "proxy_endpoint"
	SettingBitcoindHost                  = "bitcoind_host"
	SettingBitcoindPort                  = "bitcoind_port"
	SettingAnnounceAddress               = "announce_address"
	SettingAnnounceAlias                 = "announce_alias"
	SettingHideExhaustedAssets           = "hide_exhausted_assets"
	SettingAskAuthForImportantOperations = "ask_auth_for_important_operations"
	SettingAskAuthForAppLogin            = "ask_auth_for_app_login"
	SettingKeyringEnabled                = "keyring_enabled"
)

type ExpiryTime struct {
	Value uint32 `json:"value"`
	Unit  string `json:"unit"`
}

// ExpiryToSeconds converts a value and a unit of minutes, hours or days.
func ExpiryToSeconds(e ExpiryTime) (uint32, error) {
	switch strings.ToLower(e.Unit) {
	case common.ExpiryUnitMinutes:
		return e.Value * 60, nil
	case common.ExpiryUnitHours:
		return e.Value * 3600, nil
	case common.ExpiryUnitDays:
		return e.Value * 86400, nil
	default:
		return 0, common.NewError(common.KindValidation, common.KeyInvalidExpiry)
	}
}

type Settings struct {
	DefaultFeeRate                uint64     `json:"default_fee_rate"`
	DefaultExpiryTime             ExpiryTime `json:"default_expiry_time"`
	MinConfirmations              uint8      `json:"min_confirmations"`
	IndexerURL                    string     `json:"indexer_url"`
	ProxyEndpoint                 string     `json:"proxy_endpoint"`
	BitcoindHost                  string     `json:"bitcoind_host"`
	BitcoindPort                  uint16     `json:"bitcoind_port"`
	AnnounceAddress               string     `json:"announce_address"`
	AnnounceAlias                 string     `json:"announce_alias"`
	HideExhaustedAssets           bool       `json:"hide_exhausted_assets"`
	AskAuthForImportantOperations bool       `json:"ask_auth_for_important_operations"`
	AskAuthForAppLogin            bool       `json:"ask_auth_for_app_login"`
	KeyringEnabled                bool       `json:"keyring_enabled"`
}

func (s *Settings) fields() map[string]interface{} {
	return map[string]interface{}{
		SettingDefaultFeeRate:                &s.DefaultFeeRate,
		SettingDefaultExpiryTime:             &s.DefaultExpiryTime,
		SettingMinConfirmations:              &s.MinConfirmations,
		SettingIndexerURL:                    &s.IndexerURL,
		SettingProxyEndpoint:                 &s.ProxyEndpoint,
		SettingBitcoindHost:                  &s.BitcoindHost,
		SettingBitcoindPort:                  &s.BitcoindPort,
		SettingAnnounceAddress:               &s.AnnounceAddress,
		SettingAnnounceAlias:                 &s.AnnounceAlias,
		SettingHideExhaustedAssets:           &s.HideExhaustedAssets,
		SettingAskAuthForImportantOperations: &s.AskAuthForImportantOperations,
		SettingAskAuthForAppLogin:            &s.AskAuthForAppLogin,
		SettingKeyringEnabled:                &s.KeyringEnabled,
	}
}

// DefaultSettings returns the settings of a fresh wallet on network.
func DefaultSettings(network string) *Settings {
	s := &Settings{
		DefaultFeeRate:    common.DefaultFeeRate,
		DefaultExpiryTime: ExpiryTime{Value: 7, Unit: common.ExpiryUnitMinutes},
		MinConfirmations:  common.DefaultMinConfirmations,
		AnnounceAddress:   "pub.addr.example.com:9735",
		AnnounceAlias:     "nodeAlias",
	}
	switch network {
	case common.NetworkMainnet:
		s.IndexerURL = "http://127.0.0.1:50003"
		s.ProxyEndpoint = "http://127.0.0.1:3002/json-rpc"
		s.BitcoindHost = "localhost"
		s.BitcoindPort = 18447
	case common.NetworkTestnet:
		s.IndexerURL = "ssl://electrum.iriswallet.com:50013"
		s.ProxyEndpoint = "rpcs://proxy.iriswallet.com/0.2/json-rpc"
		s.BitcoindHost = "electrum.iriswallet.com"
		s.BitcoindPort = 18332
	default:
		s.IndexerURL = "electrum.rgbtools.org:50041"
		s.ProxyEndpoint = "rpcs://proxy.iriswallet.com/0.2/json-rpc"
		s.BitcoindHost = "regtest-bitcoind.rgbtools.org"
		s.BitcoindPort = 80
	}
	return s
}

func (s *Settings) validate() error {
	switch {
	case s.DefaultFeeRate == 0:
		return common.NewError(common.KindValidation, common.KeyInvalidFeeRate)
	case s.DefaultExpiryTime.Value == 0:
		return common.NewError(common.KindValidation, common.KeyInvalidExpiry)
	case s.MinConfirmations == 0:
		return common.NewError(common.KindValidation, common.KeyInvalidSetting, SettingMinConfirmations)
	case strings.TrimSpace(s.IndexerURL) == "":
		return common.NewError(common.KindValidation, common.KeyInvalidSetting, SettingIndexerURL)
	case strings.TrimSpace(s.ProxyEndpoint) == "":
		return common.NewError(common.KindValidation, common.KeyInvalidSetting, SettingProxyEndpoint)
	case strings.TrimSpace(s.BitcoindHost) == "":
		return common.NewError(common.KindValidation, common.KeyInvalidSetting, SettingBitcoindHost)
	case s.BitcoindPort == 0:
		return common.NewError(common.KindValidation, common.KeyInvalidSetting, SettingBitcoindPort)
	}
	if _, err := ExpiryToSeconds(s.DefaultExpiryTime); err != nil {
		return err
	}
	return nil
}

// SettingsUpdate carries the keys to change; nil fields keep their value.
type SettingsUpdate struct {
	DefaultFeeRate                *uint64
	DefaultExpiryTime             *ExpiryTime
	MinConfirmations              *uint8
	IndexerURL                    *string
	ProxyEndpoint                 *string
	BitcoindHost                  *string
	BitcoindPort                  *uint16
	AnnounceAddress               *string
	AnnounceAlias                 *string
	HideExhaustedAssets           *bool
	AskAuthForImportantOperations *bool
	AskAuthForAppLogin            *bool
	KeyringEnabled                *bool
	Password                      string
}

func (u *SettingsUpdate) apply(s *Settings) {
	if u.DefaultFeeRate != nil {
		s.DefaultFeeRate = *u.DefaultFeeRate
	}
	if u.DefaultExpiryTime != nil {
		s.DefaultExpiryTime = *u.DefaultExpiryTime
	}
	if u.MinConfirmations != nil {
		s.MinConfirmations = *u.MinConfirmations
	}
	if u.IndexerURL != nil {
		s.IndexerURL = strings.TrimSpace(*u.IndexerURL)
	}
	if u.ProxyEndpoint != nil {
		s.ProxyEndpoint = strings.TrimSpace(*u.ProxyEndpoint)
	}
	if u.BitcoindHost != nil {
		s.BitcoindHost = strings.TrimSpace(*u.BitcoindHost)
	}
	if u.BitcoindPort != nil {
		s.BitcoindPort = *u.BitcoindPort
	}
	if u.AnnounceAddress != nil {
		s.AnnounceAddress = *u.AnnounceAddress
	}
	if u.AnnounceAlias != nil {
		s.AnnounceAlias = *u.AnnounceAlias
	}
	if u.HideExhaustedAssets != nil {
		s.HideExhaustedAssets = *u.HideExhaustedAssets
	}
	if u.AskAuthForImportantOperations != nil {
		s.AskAuthForImportantOperations = *u.AskAuthForImportantOperations
	}
	if u.AskAuthForAppLogin != nil {
		s.AskAuthForAppLogin = *u.AskAuthForAppLogin
	}
	if u.KeyringEnabled != nil {
		s.KeyringEnabled = *u.KeyringEnabled
	}
}

// CurrentSettings returns the cached settings. Callers must not modify them.
func (svc *RgbHubService) CurrentSettings() *Settings {
	svc.settingsMu.RLock()
	defer svc.settingsMu.RUnlock()
	if svc.settings == nil {
		return DefaultSettings(svc.Network)
	}
	return svc.settings
}

// LoadSettings reads the store over the network defaults and caches the
// result. Unknown keys and undecodable values are logged and skipped.
func (svc *RgbHubService) LoadSettings(ctx context.Context) (*Settings, error) {
	rows := []models.Setting{}
	if err := svc.DB.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, err
	}
	settings := DefaultSettings(svc.Network)
	fields := settings.fields()
	for _, row := range rows {
		field, ok := fields[row.Key]
		if !ok {
			svc.Logger.Warnf("Ignoring unknown setting key:%v", row.Key)
			continue
		}
		if err := json.Unmarshal([]byte(row.Value), field); err != nil {
			svc.Logger.Errorf("Ignoring undecodable setting key:%v error:%v", row.Key, err)
		}
	}
	svc.settingsMu.Lock()
	svc.settings = settings
	svc.settingsMu.Unlock()
	return settings, nil
}

// UpdateSettings validates every changed key, checks endpoints at the node
// and persists the result. On any failure the old values stay in place.
func (svc *RgbHubService) UpdateSettings(ctx context.Context, update *SettingsUpdate) (*Settings, error) {
	current := svc.CurrentSettings()
	next := *current
	update.apply(&next)
	if err := next.validate(); err != nil {
		return nil, err
	}

	// turning either auth toggle on or off always needs the native password
	authToggled := next.AskAuthForImportantOperations != current.AskAuthForImportantOperations ||
		next.AskAuthForAppLogin != current.AskAuthForAppLogin
	if authToggled {
		if err := svc.checkNativePassword(update.Password); err != nil {
			return nil, err
		}
	}
	keyringToggled := next.KeyringEnabled != current.KeyringEnabled
	if keyringToggled && !authToggled {
		if err := svc.authorize(update.Password); err != nil {
			return nil, err
		}
	}
	if next.IndexerURL != current.IndexerURL {
		if err := svc.checkIndexerURL(ctx, next.IndexerURL); err != nil {
			return nil, err
		}
	}
	if next.ProxyEndpoint != current.ProxyEndpoint {
		if err := svc.checkProxyEndpoint(ctx, next.ProxyEndpoint); err != nil {
			return nil, err
		}
	}
	if keyringToggled {
		if err := svc.toggleKeyring(&next); err != nil {
			return nil, err
		}
	} else if next.KeyringEnabled {
		svc.syncKeyringFlags(&next)
	}

	changed := map[string]interface{}{}
	currentFields := current.fields()
	for key, value := range next.fields() {
		a, _ := json.Marshal(value)
		b, _ := json.Marshal(currentFields[key])
		if string(a) != string(b) {
			changed[key] = value
		}
	}
	if len(changed) > 0 {
		err := svc.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for key, value := range changed {
				encoded, err := json.Marshal(value)
				if err != nil {
					return err
				}
				row := &models.Setting{Key: key, Value: string(encoded)}
				_, err = tx.NewInsert().Model(row).
					On("CONFLICT (key) DO UPDATE").
					Set("value = EXCLUDED.value").
					Set("updated_at = EXCLUDED.updated_at").
					Exec(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	svc.settingsMu.Lock()
	svc.settings = &next
	svc.settingsMu.Unlock()
	return &next, nil
}

func (svc *RgbHubService) checkIndexerURL(ctx context.Context, indexerURL string) error {
	err := svc.Gateway.CheckIndexerURL(ctx, indexerURL)
	if err == nil {
		return nil
	}
	if common.KindOf(err) == common.KindNodeUnavailable {
		svc.Logger.Infof("Node unavailable, probing indexer directly indexer_url:%v", indexerURL)
		return svc.Fees.Ping(ctx, indexerURL)
	}
	if common.KindOf(err) == common.KindConfigInvalid {
		return err
	}
	return common.WrapError(common.KindConfigInvalid, common.KeyInvalidIndexerURL, err)
}

func (svc *RgbHubService) checkProxyEndpoint(ctx context.Context, proxyEndpoint string) error {
	err := svc.Gateway.CheckProxyEndpoint(ctx, proxyEndpoint)
	if err == nil || common.KindOf(err) == common.KindNodeUnavailable {
		return err
	}
	if common.KindOf(err) == common.KindConfigInvalid {
		return err
	}
	return common.WrapError(common.KindConfigInvalid, common.KeyInvalidProxyEndpoint, err)
}

// toggleKeyring probes the keyring before enabling it and removes the wallet
// secrets when disabling it.
func (svc *RgbHubService) toggleKeyring(next *Settings) error {
	if !next.KeyringEnabled {
		if err := svc.Keyring.DeleteWalletSecrets(svc.Network); err != nil {
			return err
		}
		return nil
	}
	return svc.syncKeyringFlags(next)
}

func (svc *RgbHubService) syncKeyringFlags(next *Settings) error {
	if err := svc.Keyring.SetBool(keyring.NativeAuthEnabledKey, next.AskAuthForImportantOperations); err != nil {
		svc.Logger.Errorf("Keyring write failed error:%v", err)
		return err
	}
	if err := svc.Keyring.SetBool(keyring.NativeLoginEnabledKey, next.AskAuthForAppLogin); err != nil {
		svc.Logger.Errorf("Keyring write failed error:%v", err)
		return err
	}
	return nil
}
