package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/router"
	"github.com/inkhaven/easel/runtime"
	"github.com/inkhaven/easel/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Local collaborative tool: any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// writeTimeout bounds every frame write. A peer that stops draining its
// socket would otherwise block WriteMessage forever while the hub holds
// its mutex across fan-out, wedging the whole workspace; the deadline
// turns the stall into a send error and the hub evicts the connection.
const writeTimeout = 10 * time.Second

// wsConn adapts a websocket to the broadcast.Conn interface. Writes
// serialize behind a mutex: the hub fans out from one goroutine but
// direct replies may race it, and gorilla allows one concurrent writer.
type wsConn struct {
	id      string
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.NewString(), conn: conn, timeout: writeTimeout}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error { return c.conn.Close() }

var _ broadcast.Conn = (*wsConn)(nil)

// handleWS upgrades the connection, attaches it to the user's workspace,
// replays current state to the new device, and pumps inbound messages
// through the router until the connection drops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "missing user parameter", http.StatusBadRequest)
		return
	}

	aw, err := s.registry.GetOrCreate(userID)
	if err != nil {
		s.logger.Error("workspace open failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		http.Error(w, "workspace unavailable", http.StatusInternalServerError)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	defer ws.Close()

	conn := newWSConn(ws)
	aw.Hub.Register(conn)
	s.registry.StartAgentLoop(s.baseCtx, aw)
	s.logger.Info("client connected", map[string]any{
		"user_id": userID,
		"conn_id": conn.ID(),
	})

	s.syncClient(aw, conn)
	aw.Orch.Wake()

	rc := &router.Context{
		Workspace: aw.State,
		Hub:       aw.Hub,
		Waker:     aw.Orch,
		Conn:      conn,
		Notifier:  s.notifier,
		Logger:    s.logger,
	}
	s.readLoop(rc, userID, ws)

	aw.Hub.Unregister(conn)
	s.logger.Info("client disconnected", map[string]any{
		"user_id": userID,
		"conn_id": conn.ID(),
	})
}

// syncClient replays the workspace to a freshly connected device:
// current canvas, status, gallery listing, and any accumulated
// monologue.
func (s *Server) syncClient(aw *runtime.ActiveWorkspace, conn broadcast.Conn) {
	state := aw.State
	hub := aw.Hub

	msgs := []any{
		types.NewLoadCanvasMessage(state.Strokes(), state.PieceNumber()),
		types.NewStatusMessage(state.Status()),
		types.NewGalleryUpdateMessage(state.Gallery().List()),
	}
	if m := state.Monologue(); m != "" {
		msgs = append(msgs, types.NewMonologueMessage(m))
	}
	for _, msg := range msgs {
		if err := hub.SendTo(conn, msg); err != nil {
			s.logger.Warn("initial sync failed", map[string]any{"error": err.Error()})
			return
		}
	}
}

// readLoop decodes and routes inbound messages until the websocket
// errors. Malformed JSON and over-limit sends are per-message errors,
// never connection-fatal.
func (s *Server) readLoop(rc *router.Context, userID string, ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", map[string]any{"error": err.Error()})
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow(userID) {
			s.sendError(rc, "rate limit exceeded", "slow down and retry")
			continue
		}

		var msg types.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(rc, "malformed message", err.Error())
			continue
		}

		s.router.Route(rc, msg)
	}
}

func (s *Server) sendError(rc *router.Context, message, details string) {
	if err := rc.Hub.SendTo(rc.Conn, types.NewErrorMessage(message, details)); err != nil {
		s.logger.Warn("error reply failed", map[string]any{"error": err.Error()})
	}
}
