package controllers

import (
	"net/http"
	"time"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/labstack/echo/v4"
)

// NodeController serves the node view and on demand refreshes.
type NodeController struct {
	svc *service.RgbHubService
}

func NewNodeController(svc *service.RgbHubService) *NodeController {
	return &NodeController{svc: svc}
}

type NodeResponseBody struct {
	Network     string           `json:"network"`
	Version     uint64           `json:"snapshot_version"`
	RefreshedAt time.Time        `json:"refreshed_at"`
	NodeInfo    *nodegw.NodeInfo `json:"node_info,omitempty"`
	Unspents    []nodegw.Unspent `json:"unspents"`
}

type RefreshResponseBody struct {
	Version     uint64    `json:"snapshot_version"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Node godoc
// @Summary      Node information
// @Description  Node info and unspents as of the last refresh cycle
// @Produce      json
// @Tags         Node
// @Success      200  {object}  NodeResponseBody
// @Router       /v1/node [get]
// @Security     OAuth2Password
func (controller *NodeController) Node(c echo.Context) error {
	snapshot := controller.svc.Snapshot()
	unspents := snapshot.Unspents
	if unspents == nil {
		unspents = []nodegw.Unspent{}
	}
	return c.JSON(http.StatusOK, &NodeResponseBody{
		Network:     snapshot.Network,
		Version:     snapshot.Version,
		RefreshedAt: snapshot.RefreshedAt,
		NodeInfo:    snapshot.NodeInfo,
		Unspents:    unspents,
	})
}

// Refresh godoc
// @Summary      Refresh now
// @Description  Runs a reconciliation cycle, or joins the one in flight
// @Produce      json
// @Tags         Node
// @Success      200  {object}  RefreshResponseBody
// @Failure      503  {object}  responses.ErrorResponse
// @Router       /v1/refresh [post]
// @Security     OAuth2Password
func (controller *NodeController) Refresh(c echo.Context) error {
	snapshot, err := controller.svc.Refresh(c.Request().Context())
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &RefreshResponseBody{
		Version:     snapshot.Version,
		RefreshedAt: snapshot.RefreshedAt,
	})
}
