// Package ws pushes interaction state to websocket watchers.
package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/service"
)

// Config holds websocket timing settings.
type Config struct {
	PollInterval   time.Duration
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	// MaxWatch bounds how long one connection may watch a pending interaction.
	MaxWatch time.Duration
}

// DefaultConfig returns the settings used by the gateway.
func DefaultConfig() Config {
	return Config{
		PollInterval:   250 * time.Millisecond,
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 4096,
		MaxWatch:       10 * time.Minute,
	}
}

// Server handles interaction watch connections.
type Server struct {
	service  *service.Service
	cfg      Config
	upgrader websocket.Upgrader
}

// NewServer creates a new websocket server.
func NewServer(svc *service.Service, cfg Config) *Server {
	return &Server{
		service: svc,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the watch route with the echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/interactions/:interaction_id", s.HandleWatch)
}

// HandleWatch upgrades the connection and pushes the interaction every time
// its status changes. The server closes the connection once the interaction
// is terminal.
func (s *Server) HandleWatch(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("interaction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Detail: "invalid interaction_id"})
	}

	in, err := s.service.GetInteraction(c.Request().Context(), id)
	if err != nil {
		log.Printf("ERROR: failed to get interaction %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Detail: "internal error"})
	}
	if in == nil {
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{Detail: "Interaction not found"})
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: failed to upgrade websocket: %v", err)
		return nil
	}
	connID := "ws_" + uuid.New().String()[:8]
	log.Printf("INFO: watcher %s connected interaction=%d", connID, id)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MaxWatch)
	defer cancel()

	go s.readPump(conn, cancel)
	s.watch(ctx, conn, in)

	conn.Close()
	log.Printf("INFO: watcher %s closed interaction=%d", connID, id)
	return nil
}

// readPump drains client frames so pongs and close frames are processed.
// It cancels the watch when the client goes away.
func (s *Server) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(s.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: websocket read error: %v", err)
			}
			return
		}
	}
}

// watch is the only writer on conn.
func (s *Server) watch(ctx context.Context, conn *websocket.Conn, in *domain.Interaction) {
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()
	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	if !s.push(conn, in) {
		return
	}
	last := in.Status

	for {
		select {
		case <-ctx.Done():
			s.closeWith(conn, websocket.CloseGoingAway, "watch ended")
			return

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-poll.C:
			cur, err := s.service.GetInteraction(ctx, in.InteractionID)
			if err != nil {
				log.Printf("WARN: failed to poll interaction %d: %v", in.InteractionID, err)
				continue
			}
			if cur == nil {
				s.sendJSON(conn, domain.InteractionEvent{
					Type:  domain.EventTypeError,
					Ts:    time.Now().UnixMilli(),
					Error: "interaction not found",
				})
				s.closeWith(conn, websocket.CloseNormalClosure, "interaction not found")
				return
			}
			if cur.Status == last {
				continue
			}
			last = cur.Status
			if !s.push(conn, cur) {
				return
			}
		}
	}
}

// push sends the interaction and reports whether watching should continue.
func (s *Server) push(conn *websocket.Conn, in *domain.Interaction) bool {
	ev := domain.InteractionEvent{
		Type:        domain.EventTypeInteractionSnapshot,
		Ts:          time.Now().UnixMilli(),
		Interaction: in,
		DisplayText: in.DisplayText(),
	}
	if in.Status.Terminal() {
		ev.Type = domain.EventTypeInteractionDone
	}

	if err := s.sendJSON(conn, ev); err != nil {
		return false
	}
	if in.Status.Terminal() {
		s.closeWith(conn, websocket.CloseNormalClosure, string(in.Status))
		return false
	}
	return true
}

func (s *Server) sendJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("WARN: failed to write websocket message: %v", err)
		return err
	}
	return nil
}

func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
}
