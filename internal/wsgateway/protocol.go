package wsgateway

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeWelcome      MessageType = "welcome"
	MessageTypeDataReloaded MessageType = "data_reloaded"
	MessageTypePing         MessageType = "ping"
	MessageTypePong         MessageType = "pong"
	MessageTypeError        MessageType = "error"
)

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type string `json:"type"`
}

// ServerMessage represents a control message to the client
type ServerMessage struct {
	Type         MessageType `json:"type"`
	ConnectionID string      `json:"connection_id,omitempty"`
	Code         string      `json:"code,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// DataReloadedMessage tells clients that the input tables changed
type DataReloadedMessage struct {
	Type        MessageType `json:"type"`
	Fingerprint string      `json:"fingerprint"`
	MinDate     string      `json:"min_date,omitempty"`
	MaxDate     string      `json:"max_date,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewDataReloadedMessage describes freshly loaded tables
func NewDataReloadedMessage(tables *models.Tables, at time.Time) DataReloadedMessage {
	msg := DataReloadedMessage{
		Type:        MessageTypeDataReloaded,
		Fingerprint: tables.Fingerprint,
		Timestamp:   at.UTC(),
	}
	if minDate, maxDate, ok := tables.DateBounds(); ok {
		msg.MinDate = minDate.Format(models.DateLayout)
		msg.MaxDate = maxDate.Format(models.DateLayout)
	}
	return msg
}

// HandleClientMessage answers a message from the client
func (c *Connection) HandleClientMessage(msg *ClientMessage) error {
	switch MessageType(msg.Type) {
	case MessageTypePing:
		return c.SendMessage(ServerMessage{Type: MessageTypePong})
	default:
		return c.SendError("unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}
