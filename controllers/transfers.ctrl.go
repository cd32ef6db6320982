package controllers

import (
	"net/http"
	"strconv"

	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// TransfersController handles the on-chain rail.
type TransfersController struct {
	svc *service.RgbHubService
}

func NewTransfersController(svc *service.RgbHubService) *TransfersController {
	return &TransfersController{svc: svc}
}

type SendRequestBody struct {
	AssetID          string   `json:"asset_id"`
	Invoice          string   `json:"invoice" validate:"required"`
	Amount           uint64   `json:"amount" validate:"gt=0"`
	FeeRate          *float64 `json:"fee_rate"`
	MinConfirmations *uint8   `json:"min_confirmations"`
	Password         string   `json:"password"`
}

type ReceiveRequestBody struct {
	AssetID          string  `json:"asset_id"`
	MinConfirmations *uint8  `json:"min_confirmations"`
	DurationSeconds  *uint32 `json:"duration_seconds"`
}

type FailTransferRequestBody struct {
	Password string `json:"password"`
}

type FailTransferResponseBody struct {
	Transfer *models.OnchainTransfer `json:"transfer"`
	Message  string                  `json:"message,omitempty"`
}

// Send godoc
// @Summary      Send on-chain
// @Description  Sends an RGB asset to an RGB invoice, or bitcoin to an address when asset_id is BITCOIN
// @Accept       json
// @Produce      json
// @Tags         Transfers
// @Param        SendRequestBody  body      SendRequestBody  true  "Transfer"
// @Success      200              {object}  models.OnchainTransfer
// @Failure      400              {object}  responses.ErrorResponse
// @Failure      403              {object}  responses.ErrorResponse
// @Failure      503              {object}  responses.ErrorResponse
// @Router       /v1/transfers/send [post]
// @Security     OAuth2Password
func (controller *TransfersController) Send(c echo.Context) error {
	var body SendRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load send request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid send request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	transfer, err := controller.svc.SendOnChain(c.Request().Context(), &service.SendParams{
		AssetID:          body.AssetID,
		Invoice:          body.Invoice,
		Amount:           body.Amount,
		FeeRate:          body.FeeRate,
		MinConfirmations: body.MinConfirmations,
		Password:         body.Password,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, transfer)
}

// Receive godoc
// @Summary      Receive on-chain
// @Description  Creates a blinded RGB invoice, or a fresh address for bitcoin
// @Accept       json
// @Produce      json
// @Tags         Transfers
// @Param        ReceiveRequestBody  body      ReceiveRequestBody  false  "Receive"
// @Success      200                 {object}  service.ReceiveResult
// @Failure      400                 {object}  responses.ErrorResponse
// @Failure      503                 {object}  responses.ErrorResponse
// @Router       /v1/transfers/receive [post]
// @Security     OAuth2Password
func (controller *TransfersController) Receive(c echo.Context) error {
	var body ReceiveRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load receive request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	result, err := controller.svc.Receive(c.Request().Context(), &service.ReceiveParams{
		AssetID:          body.AssetID,
		MinConfirmations: body.MinConfirmations,
		DurationSeconds:  body.DurationSeconds,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// FailTransfer godoc
// @Summary      Fail a transfer
// @Description  Gives up on a transfer still waiting for the counterparty
// @Accept       json
// @Produce      json
// @Tags         Transfers
// @Param        idx                      path      int                      true   "Transfer idx"
// @Param        FailTransferRequestBody  body      FailTransferRequestBody  false  "Password"
// @Success      200                      {object}  FailTransferResponseBody
// @Failure      404                      {object}  responses.ErrorResponse
// @Failure      409                      {object}  responses.ErrorResponse
// @Router       /v1/transfers/{idx}/fail [post]
// @Security     OAuth2Password
func (controller *TransfersController) FailTransfer(c echo.Context) error {
	idx, err := strconv.ParseInt(c.Param("idx"), 10, 64)
	if err != nil || idx <= 0 {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	var body FailTransferRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load fail transfer request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	result, err := controller.svc.FailTransfer(c.Request().Context(), idx, body.Password)
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &FailTransferResponseBody{
		Transfer: result.Transfer,
		Message:  result.Message,
	})
}
