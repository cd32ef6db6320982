package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

type FeesController struct {
	svc *service.RgbHubService
}

func NewFeesController(svc *service.RgbHubService) *FeesController {
	return &FeesController{svc: svc}
}

type FeeRateResponseBody struct {
	Speed   string `json:"speed"`
	FeeRate uint64 `json:"fee_rate"`
}

// EstimateFee godoc
// @Summary      Estimate fee rate
// @Description  Fee rate in sat/vB for slow, medium or fast confirmation
// @Produce      json
// @Tags         Transfers
// @Param        speed  path      string  true  "slow, medium or fast"
// @Success      200    {object}  FeeRateResponseBody
// @Failure      400    {object}  responses.ErrorResponse
// @Failure      503    {object}  responses.ErrorResponse
// @Router       /v1/fees/{speed} [get]
// @Security     OAuth2Password
func (controller *FeesController) EstimateFee(c echo.Context) error {
	speed := c.Param("speed")
	rate, err := controller.svc.Fees.EstimateSpeed(c.Request().Context(), speed)
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &FeeRateResponseBody{
		Speed:   speed,
		FeeRate: rate,
	})
}
