package wsgateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/commodity-dashboard/internal/config"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, cfg config.WSGatewayConfig) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(cfg, nil)
	require.NoError(t, hub.Start())

	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestHub_WelcomeAndReload(t *testing.T) {
	hub, server := newTestHub(t, config.WSGatewayConfig{})

	conn, _, err := dial(t, server, "")
	require.NoError(t, err)
	defer conn.Close()

	var welcome ServerMessage
	readMessage(t, conn, &welcome)
	assert.Equal(t, MessageTypeWelcome, welcome.Type)
	assert.NotEmpty(t, welcome.ConnectionID)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.NotifyReload(&models.Tables{
		Prices: []models.PricePoint{
			{CommodityID: "Gold", Date: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), Price: 1950},
		},
		Fingerprint: "v2",
	})

	var reloaded DataReloadedMessage
	readMessage(t, conn, &reloaded)
	assert.Equal(t, MessageTypeDataReloaded, reloaded.Type)
	assert.Equal(t, "v2", reloaded.Fingerprint)
	assert.Equal(t, "2024-03-08", reloaded.MaxDate)

	stats := hub.GetStats()
	assert.Equal(t, int64(1), stats.EventsBroadcast)
	assert.Equal(t, int64(1), stats.MessagesSent)
}

func TestHub_PingPong(t *testing.T) {
	_, server := newTestHub(t, config.WSGatewayConfig{})

	conn, _, err := dial(t, server, "")
	require.NoError(t, err)
	defer conn.Close()

	var welcome ServerMessage
	readMessage(t, conn, &welcome)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	var pong ServerMessage
	readMessage(t, conn, &pong)
	assert.Equal(t, MessageTypePong, pong.Type)
}

func TestHub_Auth(t *testing.T) {
	_, server := newTestHub(t, config.WSGatewayConfig{JWTSecret: "test-secret-key"})

	_, resp, err := dial(t, server, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, server, "?token=garbage")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := NewAuthManager("test-secret-key").GenerateToken("analyst-1", time.Hour)
	require.NoError(t, err)

	conn, _, err := dial(t, server, "?token="+token)
	require.NoError(t, err)
	defer conn.Close()

	var welcome ServerMessage
	readMessage(t, conn, &welcome)
	assert.Equal(t, MessageTypeWelcome, welcome.Type)
}

func TestHub_MaxConnections(t *testing.T) {
	hub, server := newTestHub(t, config.WSGatewayConfig{MaxConnections: 1})

	first, _, err := dial(t, server, "")
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	_, resp, err := dial(t, server, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, server := newTestHub(t, config.WSGatewayConfig{})

	conn, _, err := dial(t, server, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
