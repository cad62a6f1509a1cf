package wsgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/commodity-dashboard/internal/config"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of open WebSocket connections",
		},
	)

	wsMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_messages_total",
			Help: "WebSocket messages queued for clients",
		},
		[]string{"type", "status"}, // status: "sent" or "dropped"
	)
)

// Hub manages WebSocket connections and broadcasts data reload events
type Hub struct {
	config   config.WSGatewayConfig
	registry *ConnectionRegistry
	auth     *AuthManager
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	stats    HubStats
}

// HubStats holds statistics about the hub
type HubStats struct {
	ConnectionsTotal  int64
	ConnectionsActive int64
	EventsBroadcast   int64
	MessagesSent      int64
	MessagesDropped   int64
	LastEventTime     time.Time
	mu                sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(cfg config.WSGatewayConfig, auth *AuthManager) *Hub {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if auth == nil {
		auth = NewAuthManager(cfg.JWTSecret)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:   cfg,
		registry: NewConnectionRegistry(),
		auth:     auth,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the connection health monitor
func (h *Hub) Start() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	logger.Info("Starting WebSocket hub",
		logger.Int("max_connections", h.config.MaxConnections),
		logger.Bool("auth_enabled", h.auth.Enabled()),
	)

	h.wg.Add(1)
	go h.monitorConnections()

	return nil
}

// Stop closes every connection and waits for the pumps to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	logger.Info("Stopping WebSocket hub")
	h.cancel()
	for _, conn := range h.registry.Snapshot() {
		h.Unregister(conn)
	}
	h.wg.Wait()
	logger.Info("WebSocket hub stopped")
}

// ServeHTTP authenticates the client and upgrades the request to a WebSocket
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxConnections > 0 && h.registry.Count() >= h.config.MaxConnections {
		logger.Warn("Max connections reached, rejecting new connection",
			logger.Int("max_connections", h.config.MaxConnections),
		)
		http.Error(w, "Max connections reached", http.StatusServiceUnavailable)
		return
	}

	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		var err error
		tokenString, err = h.auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
			return
		}
	}

	userID, err := h.auth.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("Rejecting WebSocket connection", logger.ErrorField(err))
		status := http.StatusUnauthorized
		if errors.Is(err, ErrMissingToken) {
			http.Error(w, "Authentication token required", status)
			return
		}
		http.Error(w, "Invalid authentication token", status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade connection", logger.ErrorField(err))
		return
	}

	wsConn := NewConnection(uuid.New().String(), userID, conn)
	h.Register(wsConn)

	if err := wsConn.SendMessage(ServerMessage{Type: MessageTypeWelcome, ConnectionID: wsConn.ID}); err != nil {
		logger.Debug("Failed to queue welcome message",
			logger.ErrorField(err),
			logger.String("connection_id", wsConn.ID),
		)
	}

	logger.Info("WebSocket connection established",
		logger.String("connection_id", wsConn.ID),
		logger.String("user_id", userID),
		logger.String("remote_addr", r.RemoteAddr),
	)
}

// Register registers a new connection and starts its pumps
func (h *Hub) Register(conn *Connection) {
	h.registry.Add(conn)
	h.incrementConnectionsTotal()
	wsConnectionsActive.Inc()

	logger.Debug("Connection registered",
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.Int("total_connections", h.registry.Count()),
	)

	h.wg.Add(2)
	go h.writePump(conn)
	go h.readPump(conn)
}

// Unregister removes a connection and closes it. Later calls are no-ops.
func (h *Hub) Unregister(conn *Connection) {
	if !h.registry.Remove(conn.ID) {
		return
	}
	wsConnectionsActive.Dec()
	conn.Close()

	logger.Debug("Connection unregistered",
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.Int("total_connections", h.registry.Count()),
	)
}

// NotifyReload broadcasts a data_reloaded event. It is registered as a watcher listener.
func (h *Hub) NotifyReload(tables *models.Tables) {
	h.Broadcast(MessageTypeDataReloaded, NewDataReloadedMessage(tables, time.Now()))
}

// Broadcast queues a message on every connection. Slow clients drop the message.
func (h *Hub) Broadcast(msgType MessageType, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode broadcast message", logger.ErrorField(err))
		return
	}

	connections := h.registry.Snapshot()
	sent, dropped := 0, 0
	for _, conn := range connections {
		if err := conn.Enqueue(data); err != nil {
			dropped++
			wsMessagesTotal.WithLabelValues(string(msgType), "dropped").Inc()
			continue
		}
		sent++
		wsMessagesTotal.WithLabelValues(string(msgType), "sent").Inc()
	}

	h.recordBroadcast(sent, dropped)

	logger.Debug("Broadcast message",
		logger.String("type", string(msgType)),
		logger.Int("sent", sent),
		logger.Int("dropped", dropped),
		logger.Int("total_connections", len(connections)),
	)
}

// writePump writes queued messages and pings to the socket, one frame per message
func (h *Hub) writePump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client messages until the socket fails
func (h *Hub) readPump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.UpdateLastPong()
		conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket error",
					logger.ErrorField(err),
					logger.String("connection_id", conn.ID),
				)
			}
			return
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			conn.SendError("invalid_message", "failed to parse message")
			continue
		}

		if err := conn.HandleClientMessage(&clientMsg); err != nil {
			logger.Debug("Failed to handle client message",
				logger.ErrorField(err),
				logger.String("connection_id", conn.ID),
			)
		}
	}
}

// monitorConnections removes connections that stopped answering pings
func (h *Hub) monitorConnections() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			staleThreshold := h.config.ReadTimeout * 2
			for _, conn := range h.registry.Snapshot() {
				if idle := time.Since(conn.GetLastPong()); idle > staleThreshold {
					logger.Info("Removing stale connection",
						logger.String("connection_id", conn.ID),
						logger.String("user_id", conn.UserID),
						logger.Duration("idle_time", idle),
					)
					h.Unregister(conn)
				}
			}
		}
	}
}

// ConnectionCount returns the number of open connections
func (h *Hub) ConnectionCount() int {
	return h.registry.Count()
}

// GetStats returns a copy of the hub statistics
func (h *Hub) GetStats() HubStats {
	h.stats.mu.RLock()
	defer h.stats.mu.RUnlock()

	return HubStats{
		ConnectionsTotal:  h.stats.ConnectionsTotal,
		ConnectionsActive: int64(h.registry.Count()),
		EventsBroadcast:   h.stats.EventsBroadcast,
		MessagesSent:      h.stats.MessagesSent,
		MessagesDropped:   h.stats.MessagesDropped,
		LastEventTime:     h.stats.LastEventTime,
	}
}

func (h *Hub) incrementConnectionsTotal() {
	h.stats.mu.Lock()
	defer h.stats.mu.Unlock()
	h.stats.ConnectionsTotal++
}

func (h *Hub) recordBroadcast(sent, dropped int) {
	h.stats.mu.Lock()
	defer h.stats.mu.Unlock()
	h.stats.EventsBroadcast++
	h.stats.MessagesSent += int64(sent)
	h.stats.MessagesDropped += int64(dropped)
	h.stats.LastEventTime = time.Now()
}
