package controllers

import (
	"net/http"
	"strconv"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// QRController renders invoices and addresses as PNG QR codes for the
// receive screens.
type QRController struct{}

func NewQRController() *QRController {
	return &QRController{}
}

// QR godoc
// @Summary      Invoice QR code
// @Description  PNG QR code of an RGB invoice, BOLT11 invoice or address
// @Produce      png
// @Tags         Payments
// @Param        invoice  query  string  true   "Invoice or address"
// @Param        size     query  int     false  "Edge length in pixels"
// @Success      200
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/invoices/qr [get]
// @Security     OAuth2Password
func (controller *QRController) QR(c echo.Context) error {
	invoice := c.QueryParam("invoice")
	if invoice == "" {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	size := defaultQRSize
	if raw := c.QueryParam("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQRSize {
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		size = parsed
	}
	png, err := qrcode.Encode(invoice, qrcode.Medium, size)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
