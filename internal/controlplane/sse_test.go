package controlplane_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/controlplane"
	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func TestHandleSnapshotStreamEmitsLatestSnapshot(t *testing.T) {
	fake := newFakeScheduler()
	ticks := make(chan engine.Snapshot, 1)
	state := engine.NewStateSync(ticks)
	srv := controlplane.New(":0", fake.control, state, "", nil)

	ticks <- engine.Snapshot{Tick: 7, Plugins: []engine.PluginSnapshot{{ID: 1, Running: true}}}
	require.Eventually(t, func() bool { return state.Latest().Tick == 7 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest("GET", "/snapshot/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Contains(t, w.Body.String(), "event: snapshot")
	require.Contains(t, w.Body.String(), `"tick":7`)
}
