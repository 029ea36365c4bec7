package progresssrv

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(newMux(hub))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/progress"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close()
		ts.Close()
	}
}

func TestHubBroadcastsOnStartProgressComplete(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	hub.OnStart(10)
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"start"`)
	assert.Contains(t, string(data), `"total":10`)

	hub.OnProgress(3, 10)
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"progress"`)
	assert.Contains(t, string(data), `"current":3`)

	hub.OnComplete()
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"complete"`)
}

func TestHubDropsUnresponsiveClientOnClose(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	_ = conn.Close()
	time.Sleep(10 * time.Millisecond)

	assert.NotPanics(t, func() { hub.OnProgress(1, 1) })
}

func TestOnErrorBroadcastsErrorMessage(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	hub.OnError(2, assertError("extraction failed"))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"error"`)
	assert.Contains(t, string(data), "extraction failed")
}

type assertError string

func (e assertError) Error() string { return string(e) }
