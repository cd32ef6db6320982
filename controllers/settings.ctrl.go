package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// SettingsController : SettingsController struct
type SettingsController struct {
	svc *service.RgbHubService
}

func NewSettingsController(svc *service.RgbHubService) *SettingsController {
	return &SettingsController{svc: svc}
}

// UpdateSettingsRequestBody only changes the keys that are present.
type UpdateSettingsRequestBody struct {
	DefaultFeeRate                *uint64             `json:"default_fee_rate" validate:"omitempty,gt=0"`
	DefaultExpiryTime             *service.ExpiryTime `json:"default_expiry_time"`
	MinConfirmations              *uint8              `json:"min_confirmations" validate:"omitempty,gt=0"`
	IndexerURL                    *string             `json:"indexer_url"`
	ProxyEndpoint                 *string             `json:"proxy_endpoint"`
	BitcoindHost                  *string             `json:"bitcoind_host"`
	BitcoindPort                  *uint16             `json:"bitcoind_port"`
	AnnounceAddress               *string             `json:"announce_address"`
	AnnounceAlias                 *string             `json:"announce_alias"`
	HideExhaustedAssets           *bool               `json:"hide_exhausted_assets"`
	AskAuthForImportantOperations *bool               `json:"ask_auth_for_important_operations"`
	AskAuthForAppLogin            *bool               `json:"ask_auth_for_app_login"`
	KeyringEnabled                *bool               `json:"keyring_enabled"`
	Password                      string              `json:"password"`
}

// GetSettings godoc
// @Summary      Current settings
// @Produce      json
// @Tags         Settings
// @Success      200  {object}  service.Settings
// @Router       /v1/settings [get]
// @Security     OAuth2Password
func (controller *SettingsController) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, controller.svc.CurrentSettings())
}

// UpdateSettings godoc
// @Summary      Update settings
// @Description  Validates and persists the given keys. Connection settings are checked against the node before they are stored.
// @Accept       json
// @Produce      json
// @Tags         Settings
// @Param        UpdateSettingsRequestBody  body      UpdateSettingsRequestBody  true  "Settings"
// @Success      200                        {object}  service.Settings
// @Failure      400                        {object}  responses.ErrorResponse
// @Failure      403                        {object}  responses.ErrorResponse
// @Failure      503                        {object}  responses.ErrorResponse
// @Router       /v1/settings [put]
// @Security     OAuth2Password
func (controller *SettingsController) UpdateSettings(c echo.Context) error {
	var body UpdateSettingsRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load settings request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid settings request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	settings, err := controller.svc.UpdateSettings(c.Request().Context(), &service.SettingsUpdate{
		DefaultFeeRate:                body.DefaultFeeRate,
		DefaultExpiryTime:             body.DefaultExpiryTime,
		MinConfirmations:              body.MinConfirmations,
		IndexerURL:                    body.IndexerURL,
		ProxyEndpoint:                 body.ProxyEndpoint,
		BitcoindHost:                  body.BitcoindHost,
		BitcoindPort:                  body.BitcoindPort,
		AnnounceAddress:               body.AnnounceAddress,
		AnnounceAlias:                 body.AnnounceAlias,
		HideExhaustedAssets:           body.HideExhaustedAssets,
		AskAuthForImportantOperations: body.AskAuthForImportantOperations,
		AskAuthForAppLogin:            body.AskAuthForAppLogin,
		KeyringEnabled:                body.KeyringEnabled,
		Password:                      body.Password,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}
