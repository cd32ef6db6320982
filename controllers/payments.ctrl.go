package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// PaymentsController handles the lightning rail.
type PaymentsController struct {
	svc *service.RgbHubService
}

func NewPaymentsController(svc *service.RgbHubService) *PaymentsController {
	return &PaymentsController{svc: svc}
}

type PayInvoiceRequestBody struct {
	Invoice  string `json:"invoice" validate:"required"`
	Password string `json:"password"`
}

type AddInvoiceRequestBody struct {
	AssetID     string  `json:"asset_id"`
	AssetAmount uint64  `json:"asset_amount"`
	AmtMsat     *uint64 `json:"amt_msat"`
	ExpirySec   *uint32 `json:"expiry_sec"`
}

// PayInvoice godoc
// @Summary      Pay a lightning invoice
// @Description  Pays a BOLT11 invoice over the usable channels
// @Accept       json
// @Produce      json
// @Tags         Payments
// @Param        PayInvoiceRequestBody  body      PayInvoiceRequestBody  true  "Invoice"
// @Success      200                    {object}  models.LnPayment
// @Failure      400                    {object}  responses.ErrorResponse
// @Failure      403                    {object}  responses.ErrorResponse
// @Failure      409                    {object}  responses.ErrorResponse
// @Router       /v1/payments/send [post]
// @Security     OAuth2Password
func (controller *PaymentsController) PayInvoice(c echo.Context) error {
	var body PayInvoiceRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load payinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid payinvoice request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	payment, err := controller.svc.SendLn(c.Request().Context(), &service.SendLnParams{
		Invoice:  body.Invoice,
		Password: body.Password,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, payment)
}

// AddInvoice godoc
// @Summary      Create a lightning invoice
// @Description  Creates a BOLT11 invoice, optionally carrying an RGB asset amount
// @Accept       json
// @Produce      json
// @Tags         Payments
// @Param        AddInvoiceRequestBody  body      AddInvoiceRequestBody  false  "Invoice"
// @Success      200                    {object}  service.LnInvoiceResult
// @Failure      400                    {object}  responses.ErrorResponse
// @Failure      409                    {object}  responses.ErrorResponse
// @Router       /v1/payments/invoice [post]
// @Security     OAuth2Password
func (controller *PaymentsController) AddInvoice(c echo.Context) error {
	var body AddInvoiceRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load addinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	result, err := controller.svc.CreateLnInvoice(c.Request().Context(), &service.LnInvoiceParams{
		AssetID:     body.AssetID,
		AssetAmount: body.AssetAmount,
		AmtMsat:     body.AmtMsat,
		ExpirySec:   body.ExpirySec,
	})
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
