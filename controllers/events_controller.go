package controller

import (
	"log"
	"time"

	"onboardbuddy/models"
	"onboardbuddy/stores"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	eventBuffer  = 64
	pingInterval = 30 * time.Second
)

// EventsController streams store change events to the browser so open tabs
// stay in sync with each other.
type EventsController struct {
	workspaceBase
}

func NewEventsController(registry *stores.Registry, logger *log.Logger) *EventsController {
	return &EventsController{workspaceBase{Registry: registry, Logger: logger}}
}

// Upgrade rejects plain HTTP requests before the websocket handshake.
func (ec *EventsController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	c.Locals("workspace", w)
	return c.Next()
}

func (ec *EventsController) Stream(conn *websocket.Conn) {
	defer conn.Close()

	w, ok := conn.Locals("workspace").(*stores.Workspace)
	if !ok {
		return
	}
	user, _ := conn.Locals("user").(*models.User)

	events := make(chan stores.Event, eventBuffer)
	unsubscribe := w.Subscribe(func(e stores.Event) {
		select {
		case events <- e:
		default:
			ec.Logger.Printf("Dropping %s event for workspace %d: client too slow", e.Store, w.AccountID)
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if user != nil {
		ec.Logger.Printf("Event stream opened for user %d", user.ID)
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case e := <-events:
			if err := conn.WriteJSON(e); err != nil {
				ec.Logger.Printf("Error writing event: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
