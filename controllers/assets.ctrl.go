package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// AssetsController : AssetsController struct
type AssetsController struct {
	svc *service.RgbHubService
}

func NewAssetsController(svc *service.RgbHubService) *AssetsController {
	return &AssetsController{svc: svc}
}

type IssueRGB20RequestBody struct {
	Ticker    string `json:"ticker" validate:"required,max=8"`
	Name      string `json:"name" validate:"required"`
	Precision uint8  `json:"precision" validate:"lte=18"`
	Amount    uint64 `json:"amount" validate:"gt=0"`
	Password  string `json:"password"`
}

type IssueRGB25RequestBody struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Precision   uint8  `json:"precision" validate:"lte=18"`
	Amount      uint64 `json:"amount" validate:"gt=0"`
	// base64 encoded
	Media     string `json:"media"`
	MediaName string `json:"media_name"`
	Password  string `json:"password"`
}

// ListAssets godoc
// @Summary      List assets
// @Description  Assets known to the registry, optionally filtered by kind
// @Produce      json
// @Tags         Assets
// @Param        kind  query     string  false  "BITCOIN, RGB20 or RGB25"
// @Success      200   {object}  []models.Asset
// @Failure      400   {object}  responses.ErrorResponse
// @Router       /v1/assets [get]
// @Security     OAuth2Password
func (controller *AssetsController) ListAssets(c echo.Context) error {
	assets, err := controller.svc.ListAssets(c.QueryParam("kind"))
	if err != nil {
		return responses.Send(c, err)
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	return c.JSON(http.StatusOK, assets)
}

// GetAsset godoc
// @Summary      Asset detail
// @Description  Asset with its fused balance and joint transfer history
// @Produce      json
// @Tags         Assets
// @Param        asset_id  path      string  true  "Asset id"
// @Success      200       {object}  service.AssetDetail
// @Failure      404       {object}  responses.ErrorResponse
// @Router       /v1/assets/{asset_id} [get]
// @Security     OAuth2Password
func (controller *AssetsController) GetAsset(c echo.Context) error {
	detail, err := controller.svc.AssetDetail(c.Param("asset_id"))
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// GetAssetMedia godoc
// @Summary      Asset media
// @Description  Raw media attached to an RGB25 asset
// @Produce      octet-stream
// @Tags         Assets
// @Param        asset_id  path  string  true  "Asset id"
// @Success      200
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/assets/{asset_id}/media [get]
// @Security     OAuth2Password
func (controller *AssetsController) GetAssetMedia(c echo.Context) error {
	media, err := controller.svc.GetAssetMedia(c.Request().Context(), c.Param("asset_id"))
	if err != nil {
		return responses.Send(c, err)
	}
	mime := media.Mime
	if mime == "" {
		mime = echo.MIMEOctetStream
	}
	c.Response().Header().Set("ETag", `"`+media.Digest+`"`)
	return c.Blob(http.StatusOK, mime, media.Data)
}

// IssueRGB20 godoc
// @Summary      Issue an RGB20 asset
// @Description  Issues a fungible asset. Requires the native authentication password when important operations ask for it.
// @Accept       json
// @Produce      json
// @Tags         Assets
// @Param        IssueRGB20RequestBody  body      IssueRGB20RequestBody  true  "Asset"
// @Success      200                    {object}  models.Asset
// @Failure      400                    {object}  responses.ErrorResponse
// @Failure      403                    {object}  responses.ErrorResponse
// @Router       /v1/assets/rgb20 [post]
// @Security     OAuth2Password
func (controller *AssetsController) IssueRGB20(c echo.Context) error {
	var body IssueRGB20RequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load issue request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid issue request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	asset, err := controller.svc.IssueRGB20(c.Request().Context(), &service.IssueRGB20Params{
		Ticker:    body.Ticker,
		Name:      body.Name,
		Precision: body.Precision,
		Amount:    body.Amount,
		Password:  body.Password,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, asset)
}

// IssueRGB25 godoc
// @Summary      Issue an RGB25 asset
// @Description  Issues a collectible asset with optional media
// @Accept       json
// @Produce      json
// @Tags         Assets
// @Param        IssueRGB25RequestBody  body      IssueRGB25RequestBody  true  "Asset"
// @Success      200                    {object}  models.Asset
// @Failure      400                    {object}  responses.ErrorResponse
// @Failure      403                    {object}  responses.ErrorResponse
// @Router       /v1/assets/rgb25 [post]
// @Security     OAuth2Password
func (controller *AssetsController) IssueRGB25(c echo.Context) error {
	var body IssueRGB25RequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load issue request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid issue request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	var media []byte
	if body.Media != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.Media)
		if err != nil {
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		media = decoded
	}
	asset, err := controller.svc.IssueRGB25(c.Request().Context(), &service.IssueRGB25Params{
		Name:        body.Name,
		Description: body.Description,
		Precision:   body.Precision,
		Amount:      body.Amount,
		Media:       media,
		MediaName:   body.MediaName,
		Password:    body.Password,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, asset)
}

// Overview godoc
// @Summary      Asset overview
// @Description  One row per visible asset, bitcoin first
// @Produce      json
// @Tags         Assets
// @Success      200  {object}  []service.AssetRow
// @Router       /v1/overview [get]
// @Security     OAuth2Password
func (controller *AssetsController) Overview(c echo.Context) error {
	rows := controller.svc.Overview()
	if rows == nil {
		rows = []service.AssetRow{}
	}
	return c.JSON(http.StatusOK, rows)
}
