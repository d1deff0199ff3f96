// Package stream pushes live session events to browsers over Server-Sent
// Events and websockets.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/service/events"
	sessionService "github.com/zhouzirui/lumina-interior/backend/internal/service/session"
	"github.com/zhouzirui/lumina-interior/backend/pkg/utils"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Handler 实时事件处理器
type Handler struct {
	sessions     *sessionService.Service
	broker       *events.Broker
	upgrader     websocket.Upgrader
	keepAlive    time.Duration
	pingInterval time.Duration
	logger       *zap.Logger
}

// New 创建实时事件处理器
func New(sessions *sessionService.Service, broker *events.Broker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		broker:   broker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		keepAlive:    15 * time.Second,
		pingInterval: pingInterval,
		logger:       logger.Named("handler.stream"),
	}
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleSSE)
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *Handler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// handleSSE 通过Server-Sent Events推送会话事件
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	snapshot, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.broker.Subscribe(sessionID)
	defer sub.Cancel()

	utils.SetupSSEHeaders(w)
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)

	h.logger.Debug("sse stream opened", zap.String("session", sessionID))
	defer h.logger.Debug("sse stream closed", zap.String("session", sessionID))

	if err := utils.SendSSEEvent(w, flusher, events.TypeSession, initialEvent(sessionID, snapshot)); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, evt.Type, evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = h.sessions.Touch(r.Context(), sessionID)
			if err := utils.SendSSEComment(w, flusher, "keepalive"); err != nil {
				return
			}
		}
	}
}

// inboundMessage is a client frame received over the websocket.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type sliderFrame struct {
	PointerX       *float64 `json:"pointerX"`
	ContainerLeft  float64  `json:"containerLeft"`
	ContainerWidth *float64 `json:"containerWidth"`
	Percent        *float64 `json:"percent"`
}

type messageFrame struct {
	Text string `json:"text"`
}

// wsConn serialises writes; gorilla connections allow only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	snapshot, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &wsConn{conn: raw}
	defer raw.Close()

	sub := h.broker.Subscribe(sessionID)
	defer sub.Cancel()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.logger.Info("websocket connected", zap.String("session", sessionID))

	raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := conn.writeJSON(initialEvent(sessionID, snapshot)); err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer raw.Close()
		defer cancel()
		h.forward(ctx, conn, sessionID, sub)
	}()

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("session", sessionID), zap.Error(err))
			}
			break
		}
		raw.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.handleFrame(ctx, sessionID, &msg); err != nil {
			_ = conn.writeJSON(errorEvent(sessionID, err))
		}
	}

	cancel()
	wg.Wait()
	h.logger.Info("websocket disconnected", zap.String("session", sessionID))
}

// forward relays broker events and keeps the connection and the session alive.
func (h *Handler) forward(ctx context.Context, conn *wsConn, sessionID string, sub *events.Subscription) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.C:
			if !ok {
				_ = conn.writeJSON(events.Event{Type: events.TypeClosed, Timestamp: time.Now().UnixMilli()})
				return
			}
			if err := conn.writeJSON(evt); err != nil {
				return
			}
			if evt.Type == events.TypeClosed {
				return
			}
		case <-ticker.C:
			_ = h.sessions.Touch(ctx, sessionID)
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}

var errUnknownFrame = errors.New("unknown message type")

// handleFrame applies one inbound frame; results reach the client as broker events.
func (h *Handler) handleFrame(ctx context.Context, sessionID string, msg *inboundMessage) error {
	switch msg.Type {
	case "slider":
		var frame sliderFrame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			return err
		}
		switch {
		case frame.Percent != nil:
			_, err := h.sessions.SetSliderPercent(ctx, sessionID, *frame.Percent)
			return err
		case frame.PointerX != nil && frame.ContainerWidth != nil:
			_, err := h.sessions.MoveSlider(ctx, sessionID, *frame.PointerX, frame.ContainerLeft, *frame.ContainerWidth)
			return err
		default:
			return errors.New("slider frame needs percent or pointerX and containerWidth")
		}
	case "message":
		var frame messageFrame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			return err
		}
		if frame.Text == "" {
			return sessionService.ErrEmptyMessage
		}
		go func() {
			if _, err := h.sessions.SendMessage(context.WithoutCancel(ctx), sessionID, frame.Text); err != nil {
				h.logger.Warn("websocket message failed", zap.String("session", sessionID), zap.Error(err))
			}
		}()
		return nil
	case "ping":
		return nil
	default:
		return errUnknownFrame
	}
}

func initialEvent(sessionID string, snapshot any) events.Event {
	return events.Event{
		Type:      events.TypeSession,
		SessionID: sessionID,
		Data:      snapshot,
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorEvent(sessionID string, err error) events.Event {
	return events.Event{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"message": err.Error()},
		Timestamp: time.Now().UnixMilli(),
	}
}
