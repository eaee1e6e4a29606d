package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mergington-activities/internal/observability"
	"github.com/noah-isme/mergington-activities/internal/service"
)

const rosterPingInterval = 30 * time.Second

// RosterStreamHandler pushes roster events to websocket clients.
type RosterStreamHandler struct {
	events service.RosterEvents
	logger zerolog.Logger
}

// NewRosterStreamHandler creates a roster stream handler.
func NewRosterStreamHandler(events service.RosterEvents, logger zerolog.Logger) *RosterStreamHandler {
	return &RosterStreamHandler{
		events: events,
		logger: logger.With().Str("component", "roster_stream_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *RosterStreamHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))
}

func (h *RosterStreamHandler) stream(conn *websocket.Conn) {
	events, cleanup := h.events.Subscribe()
	defer cleanup()

	observability.RosterStreamsActive().Inc()
	defer observability.RosterStreamsActive().Dec()

	h.logger.Debug().Msg("roster stream connected")
	defer h.logger.Debug().Msg("roster stream disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(rosterPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("roster stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
