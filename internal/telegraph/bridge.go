package telegraph

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Chatter answers guest messages.
type Chatter interface {
	Route(ctx context.Context, sessionID, message string) string
}

// mentionPattern matches Slack (<@U123>) and Discord (<@123>, <@!123>) mentions.
var mentionPattern = regexp.MustCompile(`<@!?[A-Za-z0-9]+>`)

// Bridge decides what to do with each inbound chat message: staff
// commands go to the command handler, guest messages go to the concierge,
// and everything else is ignored.
type Bridge struct {
	chatter      Chatter
	commands     *CommandHandler
	adapter      Adapter
	guestChannel string
	staffChannel string
	botUserID    string
	logger       *zap.Logger
}

// BridgeOpts holds parameters for creating a Bridge.
type BridgeOpts struct {
	Chatter  Chatter
	Commands *CommandHandler // optional; disables staff commands when nil
	Adapter  Adapter
	// GuestChannel restricts guest conversations to one channel. Empty
	// accepts guests in any channel except the staff channel.
	GuestChannel string
	StaffChannel string
	BotUserID    string
	Logger       *zap.Logger
}

// NewBridge creates a Bridge.
func NewBridge(opts BridgeOpts) (*Bridge, error) {
	if opts.Chatter == nil {
		return nil, fmt.Errorf("telegraph: bridge: chatter is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: bridge: adapter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		chatter:      opts.Chatter,
		commands:     opts.Commands,
		adapter:      opts.Adapter,
		guestChannel: opts.GuestChannel,
		staffChannel: opts.StaffChannel,
		botUserID:    opts.BotUserID,
		logger:       logger,
	}, nil
}

// SessionKey identifies a guest conversation: one per thread, or one per
// user for top-level messages.
func SessionKey(msg InboundMessage) string {
	conv := msg.ThreadID
	if conv == "" {
		conv = "user-" + msg.UserID
	}
	return msg.Platform + ":" + msg.ChannelID + ":" + conv
}

// Handle processes a single inbound message. Replies go back to the
// message's channel and thread.
func (b *Bridge) Handle(ctx context.Context, msg InboundMessage) {
	if b.botUserID != "" && msg.UserID == b.botUserID {
		return
	}
	text := strings.TrimSpace(mentionPattern.ReplaceAllString(msg.Text, ""))
	if text == "" {
		return
	}

	inStaff := b.staffChannel != "" && msg.ChannelID == b.staffChannel
	if inStaff && b.commands != nil && isCommand(text) {
		b.logger.Debug("staff command",
			zap.String("channel", msg.ChannelID),
			zap.String("user", msg.UserName),
			zap.String("text", truncate(text, 80)))
		b.reply(ctx, msg, b.commands.Execute(ctx, text))
		return
	}

	if !b.isGuestChannel(msg.ChannelID) {
		return
	}

	session := SessionKey(msg)
	b.logger.Debug("guest message",
		zap.String("session", session),
		zap.String("user", msg.UserName),
		zap.String("text", truncate(text, 80)))
	b.reply(ctx, msg, b.chatter.Route(ctx, session, text))
}

func (b *Bridge) isGuestChannel(channelID string) bool {
	if b.guestChannel != "" {
		return channelID == b.guestChannel
	}
	return b.staffChannel == "" || channelID != b.staffChannel
}

func (b *Bridge) reply(ctx context.Context, msg InboundMessage, text string) {
	if err := b.adapter.Send(ctx, OutboundMessage{
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
		Text:      text,
	}); err != nil {
		b.logger.Error("send reply failed", zap.String("channel", msg.ChannelID), zap.Error(err))
	}
}
