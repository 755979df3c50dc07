// Package app exposes the WebSocket channel: one connection, one session,
// one simulated application.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	appmodel "github.com/figmentlabs/figment/internal/model/app"
	"github.com/figmentlabs/figment/internal/service/ai"
	"github.com/figmentlabs/figment/internal/service/engine"
	session "github.com/figmentlabs/figment/internal/service/session"
)

const readTimeout = 60 * time.Second

// Handler upgrades connections and pumps interaction events through the
// engine.
type Handler struct {
	engine   *engine.Engine
	sessions *session.Service
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(eng *engine.Engine, sessions *session.Service) *Handler {
	return &Handler{
		engine:   eng,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type       string            `json:"type"`
	Text       string            `json:"text,omitempty"`
	ElementID  string            `json:"elementId,omitempty"`
	FormFields map[string]string `json:"formFields,omitempty"`
}

type outboundMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	HTML      string `json:"html,omitempty"`
	Message   string `json:"message,omitempty"`
}

// conn serializes writes: the ping loop and the event loop share one socket.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// handleWebSocket runs one session for the lifetime of the connection. The
// read loop is a single goroutine, so a session's events are processed
// strictly one at a time.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		log.Printf("[websocket] session create failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Terminate before cancel so any in-flight completion is discarded
	// instead of landing in a dead transcript.
	defer func() {
		if err := h.sessions.Terminate(context.Background(), sess.ID); err != nil {
			log.Printf("[websocket] terminate failed session=%s: %v", sess.ID, err)
		}
		h.sessions.Remove(context.Background(), sess.ID)
		log.Printf("[websocket] session closed session=%s", sess.ID)
	}()

	log.Printf("[websocket] new connection session=%s", sess.ID)

	c := &conn{ws: ws}

	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	if err := c.writeJSON(outboundMessage{Type: "ready", SessionID: sess.ID}); err != nil {
		log.Printf("[websocket] write ready failed session=%s: %v", sess.ID, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := ws.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error session=%s: %v", sess.ID, err)
			}
			return
		}

		h.handleMessage(ctx, c, sess.ID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "description":
		h.handleDescription(ctx, c, sessionID, msg.Text)
	case "interaction":
		h.handleInteraction(ctx, c, sessionID, appmodel.InteractionEvent{
			ElementID:  msg.ElementID,
			FormFields: msg.FormFields,
		})
	default:
		h.sendError(c, sessionID, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleDescription(ctx context.Context, c *conn, sessionID, text string) {
	if text == "" {
		h.sendError(c, sessionID, "description text is required")
		return
	}

	view, err := h.engine.HandleDescription(ctx, sessionID, text)
	if err != nil {
		h.sendEngineError(ctx, c, sessionID, err)
		return
	}

	h.sendView(ctx, c, sessionID, view)
}

func (h *Handler) handleInteraction(ctx context.Context, c *conn, sessionID string, event appmodel.InteractionEvent) {
	view, err := h.engine.HandleInteraction(ctx, sessionID, event)
	if errors.Is(err, engine.ErrNoChange) {
		if writeErr := c.writeJSON(outboundMessage{Type: "no_change", SessionID: sessionID}); writeErr != nil {
			log.Printf("[websocket] write no_change failed session=%s: %v", sessionID, writeErr)
		}
		return
	}
	if err != nil {
		h.sendEngineError(ctx, c, sessionID, err)
		return
	}

	h.sendView(ctx, c, sessionID, view)
}

func (h *Handler) sendView(ctx context.Context, c *conn, sessionID string, view appmodel.ViewResult) {
	if h.terminated(ctx, sessionID) {
		return
	}
	if err := c.writeJSON(outboundMessage{Type: "view", SessionID: sessionID, HTML: view.HTML}); err != nil {
		log.Printf("[websocket] write view failed session=%s: %v", sessionID, err)
	}
}

func (h *Handler) sendEngineError(ctx context.Context, c *conn, sessionID string, err error) {
	if errors.Is(err, session.ErrSessionTerminated) || h.terminated(ctx, sessionID) {
		// Connection already gone; nothing to tell anyone.
		return
	}

	h.logEngineError(ctx, sessionID, err)
	h.sendError(c, sessionID, userMessage(err))
}

func (h *Handler) logEngineError(ctx context.Context, sessionID string, err error) {
	phase := appmodel.Phase("unknown")
	if sess, getErr := h.sessions.Get(ctx, sessionID); getErr == nil {
		phase = sess.Phase
	}
	log.Printf("[websocket] event failed session=%s phase=%s: %v", sessionID, phase, err)
}

func (h *Handler) sendError(c *conn, sessionID, message string) {
	if err := c.writeJSON(outboundMessage{Type: "error", SessionID: sessionID, Message: message}); err != nil {
		log.Printf("[websocket] write error failed session=%s: %v", sessionID, err)
	}
}

func (h *Handler) terminated(ctx context.Context, sessionID string) bool {
	sess, err := h.sessions.Get(ctx, sessionID)
	return err != nil || sess.Phase == appmodel.PhaseTerminated
}

// userMessage maps internal failures onto user-facing text.
func userMessage(err error) string {
	var modelErr *ai.ModelError
	if errors.As(err, &modelErr) {
		return modelErr.UserMessage()
	}

	switch {
	case errors.Is(err, engine.ErrWrongPhase):
		return "That message is not valid right now."
	case errors.Is(err, engine.ErrMissingElementID):
		return "The interaction is missing its element id."
	case errors.Is(err, engine.ErrNoHTMLFound):
		return "The application did not produce a view. Try your last action again."
	case errors.Is(err, session.ErrExchangeInFlight):
		return "Still working on your previous action."
	default:
		return "Something went wrong handling that action."
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
