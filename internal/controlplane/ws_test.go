package controlplane_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/controlplane"
	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func TestHandleWebsocketUpdateWorkspaceRoundTrip(t *testing.T) {
	fake := newFakeScheduler()
	state := engine.NewStateSync(make(chan engine.Snapshot))
	srv := controlplane.New(":0", fake.control, state, "", nil)

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()
	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/control"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"op": "update_workspace",
		"id": "req-1",
		"body": map[string]any{
			"plugins":     []any{map[string]any{"id": 1, "kind": "gain"}},
			"connections": []any{},
		},
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env map[string]any
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, "ack", env["op"])
	require.Equal(t, "req-1", env["id"])
}

func TestHandleWebsocketUnknownOpReturnsError(t *testing.T) {
	fake := newFakeScheduler()
	state := engine.NewStateSync(make(chan engine.Snapshot))
	srv := controlplane.New(":0", fake.control, state, "", nil)

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()
	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/control"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"op": "not_a_real_op", "id": "req-2"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env map[string]any
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, "error", env["op"])
}
