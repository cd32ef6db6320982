package controllers

import (
	"net/http"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/lib/tokens"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	eventStreamBuffer    = 32
	eventStreamKeepalive = 30 * time.Second
)

// EventStreamController : EventStreamController struct
type EventStreamController struct {
	svc *service.RgbHubService
}

type EventWrapper struct {
	Type  string        `json:"type"`
	Event *common.Event `json:"event,omitempty"`
}

func NewEventStreamController(svc *service.RgbHubService) *EventStreamController {
	return &EventStreamController{svc: svc}
}

// StreamEvents streams core events to the client. The token is passed as a
// query parameter since browsers cannot set headers on websocket upgrades.
func (controller *EventStreamController) StreamEvents(c echo.Context) error {
	if controller.svc.CurrentSettings().AskAuthForAppLogin {
		if _, err := tokens.ParseToken(controller.svc.Config.JWTSecret, c.QueryParam("token")); err != nil {
			return c.JSON(http.StatusUnauthorized, responses.BadAuthError)
		}
	}
	topic := c.QueryParam("type")
	if topic == "" {
		topic = common.EventTopicAll
	}

	eventChan := make(chan common.Event, eventStreamBuffer)
	subId := controller.svc.EventPubSub.Subscribe(topic, eventChan)
	upgrader := websocket.Upgrader{}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		controller.svc.EventPubSub.Unsubscribe(subId, topic)
		return err
	}
	defer ws.Close()
	ticker := time.NewTicker(eventStreamKeepalive)
	defer ticker.Stop()

	//start listening for close messages
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, _, err := ws.ReadMessage()
			if err != nil {
				return
			}
		}
	}()

	//start with keepalive message
	err = ws.WriteJSON(&EventWrapper{Type: "keepalive"})
	if err != nil {
		controller.svc.Logger.Error(err)
		controller.svc.EventPubSub.Unsubscribe(subId, topic)
		return nil
	}
SocketLoop:
	for {
		select {
		case <-done:
			break SocketLoop
		case <-ticker.C:
			err := ws.WriteJSON(&EventWrapper{Type: "keepalive"})
			if err != nil {
				controller.svc.Logger.Error(err)
				break SocketLoop
			}
		case event, ok := <-eventChan:
			if !ok {
				break SocketLoop
			}
			err := ws.WriteJSON(&EventWrapper{Type: "event", Event: &event})
			if err != nil {
				controller.svc.Logger.Error(err)
				break SocketLoop
			}
		}
	}
	controller.svc.EventPubSub.Unsubscribe(subId, topic)
	return nil
}
