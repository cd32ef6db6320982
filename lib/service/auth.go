package service

import (
	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/lib/security"
	"github.com/getAlby/rgbhub.go/lib/tokens"
)

// authorize is the native auth gate of important operations. It passes
// when the gate is off, otherwise password must match the configured one.
func (svc *RgbHubService) authorize(password string) error {
	if !svc.CurrentSettings().AskAuthForImportantOperations {
		return nil
	}
	return svc.checkNativePassword(password)
}

func (svc *RgbHubService) checkNativePassword(password string) error {
	secret := svc.Config.NativeAuthenticationPassword
	if password == "" || secret == "" || !security.CheckPassword(secret, password) {
		return common.NewError(common.KindNativeAuthRejected, common.KeyAuthenticationCancelled)
	}
	return nil
}

// Login issues an app session token. The password is only checked when
// ask_auth_for_app_login is on.
func (svc *RgbHubService) Login(password string) (string, error) {
	if svc.CurrentSettings().AskAuthForAppLogin {
		if err := svc.checkNativePassword(password); err != nil {
			return "", err
		}
	}
	return tokens.GenerateAccessToken(svc.Config.JWTSecret, svc.Config.JWTAccessTokenExpiry, svc.Network)
}
