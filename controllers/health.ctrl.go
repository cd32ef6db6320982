package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

type HealthController struct {
	svc *service.RgbHubService
}

func NewHealthController(svc *service.RgbHubService) *HealthController {
	return &HealthController{svc: svc}
}

type HealthResponse struct {
	Result          string `json:"result"`
	Network         string `json:"network"`
	SnapshotVersion uint64 `json:"snapshot_version"`
}

// Check godoc
// @Summary      Check system health
// @Description  Check system health
// @Accept       json
// @Produce      json
// @Tags         Node
// @Success      200  {object}  HealthResponse
// @Router       /v1/health [get]
func (controller *HealthController) Check(c echo.Context) error {
	snapshot := controller.svc.Snapshot()
	return c.JSON(http.StatusOK, &HealthResponse{
		Result:          "OK",
		Network:         snapshot.Network,
		SnapshotVersion: snapshot.Version,
	})
}
