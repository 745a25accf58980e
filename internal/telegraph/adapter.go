// Package telegraph connects the concierge to chat platforms (Slack,
// Discord). Guest messages are answered through the intent router, and
// staff receive new orders, service requests and a daily digest.
package telegraph

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the adapter is closed. Listen must only
	// be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage is a message received from the chat platform.
type InboundMessage struct {
	Platform  string // "slack", "discord"
	ChannelID string
	ThreadID  string // empty for top-level messages
	UserID    string
	UserName  string
	Text      string
	Timestamp time.Time
}

// OutboundMessage is a message to be sent to the chat platform. An empty
// ChannelID means the adapter's default channel.
type OutboundMessage struct {
	ChannelID string
	ThreadID  string
	Text      string
	Alerts    []Alert
}

// Alert is a staff notification rendered as an attachment or embed.
type Alert struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "success"
	Color    string // sidebar color hint, e.g. "#36a64f"
	Fields   []Field
}

// Field is a key-value pair displayed in an alert.
type Field struct {
	Name  string
	Value string
	Short bool // render side-by-side with another field
}

// BotUserIDer is implemented by adapters that know the bot's own user ID.
type BotUserIDer interface {
	BotUserID() string
}
