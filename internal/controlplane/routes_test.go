package controlplane_test

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/controlplane"
	"github.com/rtsyn-dev/rtsyn/internal/engine"
	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// fakeScheduler drains a control channel on its own goroutine, handing
// back whatever Reply the test configured for each message type, the
// same single-owner control-channel shape the real Scheduler uses.
type fakeScheduler struct {
	control chan engine.ControlMessage
	ws      engine.Workspace
}

func newFakeScheduler() *fakeScheduler {
	f := &fakeScheduler{control: make(chan engine.ControlMessage, 8)}
	go f.run()
	return f
}

func (f *fakeScheduler) run() {
	for msg := range f.control {
		switch m := msg.(type) {
		case engine.UpdateWorkspaceMsg:
			f.ws = m.Workspace
			m.Reply <- engine.Reply{}
		case engine.QueryWorkspaceMsg:
			m.Reply <- engine.Reply{Value: f.ws}
		case engine.StartPluginMsg:
			m.Reply <- engine.Reply{}
		case engine.StopPluginMsg:
			m.Reply <- engine.Reply{}
		case engine.SetAllPluginsRunningMsg:
			m.Reply <- engine.Reply{}
		case engine.RestartPluginMsg:
			m.Reply <- engine.Reply{}
		case engine.GetVariableMsg:
			m.Reply <- engine.Reply{Value: 1.5}
		case engine.SetVariableMsg:
			m.Reply <- engine.Reply{}
		case engine.QueryPluginMetadataMsg:
			m.Reply <- engine.Reply{Value: "metadata-for-" + m.Kind}
		case engine.QueryPluginBehaviorMsg:
			m.Reply <- engine.Reply{Value: rtplugin.DefaultBehavior()}
		}
	}
}

func newTestServer(t *testing.T) (*controlplane.Server, *fakeScheduler) {
	t.Helper()
	fake := newFakeScheduler()
	state := engine.NewStateSync(make(chan engine.Snapshot))
	srv := controlplane.New(":0", fake.control, state, "", nil)
	return srv, fake
}

const validWorkspace = `{
	"plugins": [{"id": 1, "kind": "gain", "priority": 0, "config": {}}],
	"connections": []
}`

func TestHandleUpdateWorkspaceAcceptsValidDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/workspace", bytes.NewBufferString(validWorkspace))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 204, w.Code)
}

func TestHandleUpdateWorkspaceRejectsMissingConnections(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"plugins": [{"id": 1, "kind": "gain"}]}`
	req := httptest.NewRequest("POST", "/workspace", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 400, w.Code)
}

func TestHandleGetWorkspaceRoundTripsUpdatedWorkspace(t *testing.T) {
	srv, _ := newTestServer(t)

	postReq := httptest.NewRequest("POST", "/workspace", bytes.NewBufferString(validWorkspace))
	postW := httptest.NewRecorder()
	srv.ServeHTTP(postW, postReq)
	require.Equal(t, 204, postW.Code)

	getReq := httptest.NewRequest("GET", "/workspace", nil)
	getW := httptest.NewRecorder()
	srv.ServeHTTP(getW, getReq)
	require.Equal(t, 200, getW.Code)
	require.Contains(t, getW.Body.String(), `"kind":"gain"`)
}

func TestHandleSetRunningStartsAndStopsPlugin(t *testing.T) {
	srv, _ := newTestServer(t)

	startReq := httptest.NewRequest("POST", "/plugins/1/running", bytes.NewBufferString(`{"running": true}`))
	startW := httptest.NewRecorder()
	srv.ServeHTTP(startW, startReq)
	require.Equal(t, 204, startW.Code)

	stopReq := httptest.NewRequest("POST", "/plugins/1/running", bytes.NewBufferString(`{"running": false}`))
	stopW := httptest.NewRecorder()
	srv.ServeHTTP(stopW, stopReq)
	require.Equal(t, 204, stopW.Code)
}

func TestHandleSetRunningRejectsNonNumericID(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/plugins/not-a-number/running", bytes.NewBufferString(`{"running": true}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 400, w.Code)
}

func TestHandleGetVariableReturnsValue(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/plugins/1/variables/gain", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"value":1.5`)
}

func TestHandleSetAllRunningStartsEveryPlugin(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/plugins/running", bytes.NewBufferString(`{"running": true}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 204, w.Code)
}

func TestHandleQueryBehaviorReturnsLoaderBehaviorWithoutAddingPlugin(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/plugins/behavior", bytes.NewBufferString(`{"kind": "gain"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"loads_started":true`)
}

func TestHandleQueryMetadataReturnsLoaderMetadata(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/plugins/metadata", bytes.NewBufferString(`{"kind": "gain"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), "metadata-for-gain")
}

func TestBearerAuthRejectsMissingTokenWhenSecretSet(t *testing.T) {
	fake := newFakeScheduler()
	state := engine.NewStateSync(make(chan engine.Snapshot))
	srv := controlplane.New(":0", fake.control, state, "super-secret", nil)

	req := httptest.NewRequest("GET", "/workspace", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, 401, w.Code)
}
