package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// streamNotifications pushes the caller's notification list on connect, on
// every change signal from the hub and on a refresh ticker.
func (s *Server) streamNotifications(c *gin.Context) {
	identity := currentIdentity(c)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.String("user", identity.Username), zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.NotificationSubs.Inc()
	defer s.metrics.NotificationSubs.Dec()

	signals, cancel := s.hub.Subscribe(identity.Username)
	defer cancel()

	ctx, stop := context.WithCancel(c.Request.Context())
	defer stop()

	// the reader only exists to notice the client going away and to answer pings
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer stop()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	refresh := time.NewTicker(s.opts.NotificationRefresh)
	defer refresh.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if !s.pushNotifications(ctx, conn, identity.Username) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			<-readerDone
			return
		case _, ok := <-signals:
			if !ok || !s.pushNotifications(ctx, conn, identity.Username) {
				return
			}
		case <-refresh.C:
			if !s.pushNotifications(ctx, conn, identity.Username) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// pushNotifications writes the current list; false means the connection is unusable.
func (s *Server) pushNotifications(ctx context.Context, conn *websocket.Conn, recipient string) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	list, err := s.exchanges.ListNotifications(ctx, recipient)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.log.Error("list notifications for stream", zap.String("user", recipient), zap.Error(err))
		return conn.WriteJSON(outboundMessage[errorPayload]{
			Type:    "error",
			Payload: errorPayload{Message: "could not load notifications"},
		}) == nil
	}
	if err := conn.WriteJSON(outboundMessage[any]{Type: "notifications", Payload: list}); err != nil {
		s.log.Debug("ws write failed", zap.String("user", recipient), zap.Error(err))
		return false
	}
	return true
}
