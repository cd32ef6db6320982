package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// ChannelsController : ChannelsController struct
type ChannelsController struct {
	svc *service.RgbHubService
}

func NewChannelsController(svc *service.RgbHubService) *ChannelsController {
	return &ChannelsController{svc: svc}
}

type OpenChannelRequestBody struct {
	PeerURI     string  `json:"peer_uri" validate:"required"`
	CapacitySat *uint64 `json:"capacity_sat"`
	PushMsat    *uint64 `json:"push_msat"`
	AssetID     string  `json:"asset_id"`
	AssetAmount uint64  `json:"asset_amount"`
	Public      *bool   `json:"public"`
	Password    string  `json:"password"`
}

type CloseChannelRequestBody struct {
	Force    bool   `json:"force"`
	Password string `json:"password"`
}

type CloseChannelResponseBody struct {
	Channel *models.Channel `json:"channel"`
	Message string          `json:"message,omitempty"`
}

// ListChannels godoc
// @Summary      List channels
// @Description  Channels as of the last refresh. With asset_id only the usable channels carrying that asset are returned.
// @Produce      json
// @Tags         Channels
// @Param        asset_id  query     string  false  "Asset id"
// @Success      200       {object}  []models.Channel
// @Router       /v1/channels [get]
// @Security     OAuth2Password
func (controller *ChannelsController) ListChannels(c echo.Context) error {
	var channels []models.Channel
	if assetID := c.QueryParam("asset_id"); assetID != "" {
		channels = controller.svc.GetUsableForAsset(assetID)
	} else {
		channels = controller.svc.ListChannels()
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return c.JSON(http.StatusOK, channels)
}

// OpenChannel godoc
// @Summary      Open a channel
// @Description  Opens a channel to a peer, optionally colored with an RGB asset
// @Accept       json
// @Produce      json
// @Tags         Channels
// @Param        OpenChannelRequestBody  body      OpenChannelRequestBody  true  "Channel"
// @Success      200                     {object}  models.Channel
// @Failure      400                     {object}  responses.ErrorResponse
// @Failure      403                     {object}  responses.ErrorResponse
// @Failure      503                     {object}  responses.ErrorResponse
// @Router       /v1/channels [post]
// @Security     OAuth2Password
func (controller *ChannelsController) OpenChannel(c echo.Context) error {
	var body OpenChannelRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load open channel request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid open channel request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	channel, err := controller.svc.OpenChannel(c.Request().Context(), &service.OpenChannelParams{
		PeerURI:     body.PeerURI,
		CapacitySat: body.CapacitySat,
		PushMsat:    body.PushMsat,
		AssetID:     body.AssetID,
		AssetAmount: body.AssetAmount,
		Public:      body.Public,
		Password:    body.Password,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, channel)
}

// CloseChannel godoc
// @Summary      Close a channel
// @Description  Cooperative close, or force close with force=true
// @Accept       json
// @Produce      json
// @Tags         Channels
// @Param        channel_id               path      string                   true   "Channel id"
// @Param        CloseChannelRequestBody  body      CloseChannelRequestBody  false  "Options"
// @Success      200                      {object}  CloseChannelResponseBody
// @Failure      404                      {object}  responses.ErrorResponse
// @Failure      409                      {object}  responses.ErrorResponse
// @Router       /v1/channels/{channel_id}/close [post]
// @Security     OAuth2Password
func (controller *ChannelsController) CloseChannel(c echo.Context) error {
	var body CloseChannelRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load close channel request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	result, err := controller.svc.CloseChannel(c.Request().Context(), c.Param("channel_id"), body.Force, body.Password)
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &CloseChannelResponseBody{
		Channel: result.Channel,
		Message: result.Message,
	})
}
