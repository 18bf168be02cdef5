package controlplane

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEnvelope is the duplex control socket's single message shape: a
// client sends {"op": "...", ...} and receives either a snapshot push
// or a reply to an op it sent (spec §4.11: "GET /ws/control via
// websocket").
type wsEnvelope struct {
	Op   string          `json:"op,omitempty"`
	ID   string          `json:"id,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go s.wsSnapshotPump(conn, done)
	defer close(done)

	for {
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		s.dispatchWSOp(conn, env)
	}
}

func (s *Server) wsSnapshotPump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	var lastTick uint64
	first := true
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := s.state.Latest()
			if !first && snap.Tick == lastTick {
				continue
			}
			first, lastTick = false, snap.Tick
			payload, err := json.Marshal(toSnapshotDTO(snap))
			if err != nil {
				continue
			}
			env := wsEnvelope{Op: "snapshot", Body: payload}
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatchWSOp(conn *websocket.Conn, env wsEnvelope) {
	switch env.Op {
	case "update_workspace":
		var dto workspaceDTO
		if err := json.Unmarshal(env.Body, &dto); err != nil {
			s.wsError(conn, env.ID, err)
			return
		}
		replyCh := make(chan engine.Reply, 1)
		s.control <- engine.UpdateWorkspaceMsg{Workspace: fromWorkspaceDTO(dto), Reply: replyCh}
		r := <-replyCh
		if r.Err != nil {
			s.wsError(conn, env.ID, r.Err)
			return
		}
		s.wsAck(conn, env.ID)
	default:
		s.wsError(conn, env.ID, fmt.Errorf("unknown op: %s", env.Op))
	}
}

func (s *Server) wsAck(conn *websocket.Conn, id string) {
	_ = conn.WriteJSON(wsEnvelope{Op: "ack", ID: id})
}

func (s *Server) wsError(conn *websocket.Conn, id string, err error) {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	_ = conn.WriteJSON(wsEnvelope{Op: "error", ID: id, Body: body})
}
