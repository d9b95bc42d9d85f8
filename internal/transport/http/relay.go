package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/extension/dapp"
	"github.com/fleshka4/dex-bridge/internal/extension/messaging"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// Relay is the dapp side of the wallet bridge.
type Relay interface {
	HandleRequest(ctx context.Context, raw []byte, src messaging.Source) error
	HandleResponse(ctx context.Context, raw []byte) error
	State() dapp.State
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Pages from any origin may connect; the origin is passed on to the
	// background, which decides what to grant.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn serializes writes, which gorilla/websocket requires.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(ctx context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(err, "conn.SetWriteDeadline")
	}
	return errors.Wrap(c.conn.WriteJSON(v), "conn.WriteJSON")
}

// page is a connected dapp page.
type page struct {
	wsConn
	id     string
	origin string
}

func (p *page) ID() string     { return p.id }
func (p *page) Origin() string { return p.origin }

func (p *page) PostMessage(ctx context.Context, msg any) error {
	return p.writeJSON(ctx, msg)
}

// BackgroundLink is the socket of the attached wallet background. At most one
// background is attached at a time.
type BackgroundLink struct {
	mu   sync.Mutex
	conn *wsConn
}

// NewBackgroundLink returns a link with no background attached.
func NewBackgroundLink() *BackgroundLink {
	return &BackgroundLink{}
}

// SendMessage forwards req to the attached background.
func (b *BackgroundLink) SendMessage(ctx context.Context, req messaging.BackgroundRequest) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn == nil {
		return errors.Wrap(apperrors.ErrBackgroundUnavailable, "BackgroundLink.SendMessage")
	}
	return conn.writeJSON(ctx, req)
}

// Attached reports whether a background is connected.
func (b *BackgroundLink) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.conn != nil
}

func (b *BackgroundLink) attach(c *wsConn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return false
	}
	b.conn = c
	return true
}

func (b *BackgroundLink) detach(c *wsConn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == c {
		b.conn = nil
	}
}

func (s *Server) handleDapp(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("dapp upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	p := &page{wsConn: wsConn{conn: conn}, id: uuid.NewString(), origin: r.Header.Get("Origin")}
	logger := s.logger.With(zap.String("page", p.id), zap.String("origin", p.origin))
	logger.Info("dapp connected")
	defer logger.Info("dapp disconnected")

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("dapp read failed", zap.Error(err))
			}
			return
		}

		err = s.relay.HandleRequest(ctx, raw, p)
		if err == nil {
			continue
		}
		logger.Info("dapp request failed", zap.Error(err))
		reply := messaging.PageErrorResponse{RequestID: dapp.PeekRequestID(raw), Error: dapp.ToProviderError(err)}
		if err := p.PostMessage(ctx, reply); err != nil {
			logger.Warn("dapp reply failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	if s.background.Attached() {
		http.Error(w, "background already attached", http.StatusConflict)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("background upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	c := &wsConn{conn: conn}
	if !s.background.attach(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "background already attached"))
		return
	}
	defer s.background.detach(c)

	logger := s.logger.With(zap.String("background", uuid.NewString()))
	logger.Info("background attached")
	defer logger.Info("background detached")

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("background read failed", zap.Error(err))
			}
			return
		}
		if err := s.relay.HandleResponse(ctx, raw); err != nil {
			logger.Warn("background response failed", zap.Error(err), zap.String("raw", truncate(raw)))
		}
	}
}

func truncate(raw []byte) string {
	const limit = 256
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

var (
	_ messaging.Source     = (*page)(nil)
	_ messaging.Background = (*BackgroundLink)(nil)
)
