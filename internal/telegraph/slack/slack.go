// Package slack connects the concierge to Slack over Socket Mode. Guest
// replies are posted as mrkdwn and staff alerts as Block Kit cards.
package slack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/zulandar/concierge/internal/telegraph"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for AdapterOpts.
const (
	DefaultPostInterval = time.Second
	DefaultPostBurst    = 4
	inboundBuffer       = 100
)

// slackClient is the subset of the Web API the adapter calls.
type slackClient interface {
	AuthTest() (*slackapi.AuthTestResponse, error)
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
	GetUserInfo(userID string) (*slackapi.User, error)
}

// socketClient is the subset of *socketmode.Client the adapter calls.
type socketClient interface {
	Run() error
	EventsChan() chan socketmode.Event
	Ack(req socketmode.Request, payload ...interface{})
}

type socketModeClient struct{ *socketmode.Client }

func (c socketModeClient) EventsChan() chan socketmode.Event { return c.Events }

// backoff doubles from base up to max.
type backoff struct {
	base     time.Duration
	max      time.Duration
	attempts int
}

func (b backoff) delay(attempt int) time.Duration {
	d := b.base << attempt
	if d <= 0 || d > b.max {
		return b.max
	}
	return d
}

// Adapter implements telegraph.Adapter for Slack.
type Adapter struct {
	appToken       string
	botToken       string
	defaultChannel string
	logger         *zap.Logger
	limiter        *rate.Limiter
	reconnect      backoff
	retry          backoff

	mu        sync.Mutex
	client    slackClient
	socket    socketClient
	botUserID string
	userNames map[string]string
	connected bool
	closed    bool
	inbound   chan telegraph.InboundMessage
	stop      context.CancelFunc
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	AppToken  string // xapp-... token for Socket Mode
	BotToken  string // xoxb-... token for the Web API
	ChannelID string // used when an outbound message names no channel
	// PostInterval and PostBurst pace chat.postMessage calls so a burst
	// of staff alerts stays under Slack's per-channel limit.
	PostInterval time.Duration
	PostBurst    int
	Logger       *zap.Logger

	// Injected by tests in place of the real Slack clients.
	Client slackClient
	Socket socketClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.Socket == nil && opts.AppToken == "" {
		return nil, fmt.Errorf("slack: app token is required for socket mode")
	}
	if opts.PostInterval <= 0 {
		opts.PostInterval = DefaultPostInterval
	}
	if opts.PostBurst <= 0 {
		opts.PostBurst = DefaultPostBurst
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		appToken:       opts.AppToken,
		botToken:       opts.BotToken,
		defaultChannel: opts.ChannelID,
		logger:         logger,
		limiter:        rate.NewLimiter(rate.Every(opts.PostInterval), opts.PostBurst),
		reconnect:      backoff{base: 2 * time.Second, max: 2 * time.Minute, attempts: 10},
		retry:          backoff{base: time.Second, max: 30 * time.Second, attempts: 3},
		client:         opts.Client,
		socket:         opts.Socket,
		userNames:      make(map[string]string),
		inbound:        make(chan telegraph.InboundMessage, inboundBuffer),
	}, nil
}

// Connect verifies the bot token and records the bot's user ID.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.closed:
		return fmt.Errorf("slack: adapter already closed")
	case a.connected:
		return nil
	}

	if a.client == nil {
		api := slackapi.New(a.botToken, slackapi.OptionAppLevelToken(a.appToken))
		a.client = api
		a.socket = socketModeClient{socketmode.New(api)}
	}

	auth, err := a.client.AuthTest()
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	a.botUserID = auth.UserID
	a.connected = true
	a.logger.Info("slack authenticated", zap.String("bot_user", auth.UserID), zap.String("team", auth.Team))
	return nil
}

// Listen starts the Socket Mode connection and returns guest and staff
// messages. The channel is closed by Close.
func (a *Adapter) Listen(ctx context.Context) (<-chan telegraph.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("slack: not connected")
	}

	ctx, a.stop = context.WithCancel(ctx)
	go a.superviseSocket(ctx)
	go a.pumpEvents(ctx)
	return a.inbound, nil
}

// Send posts msg to its channel, or to the default channel when it names
// none. Replies land in msg.ThreadID when set.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	a.mu.Lock()
	connected := a.connected
	a.mu.Unlock()
	if !connected {
		return fmt.Errorf("slack: not connected")
	}

	channel := msg.ChannelID
	if channel == "" {
		channel = a.defaultChannel
	}
	if channel == "" {
		return fmt.Errorf("slack: no channel specified")
	}

	if err := a.post(ctx, channel, messageOptions(msg)); err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// post paces the call through the limiter and retries while Slack answers
// with a rate limit.
func (a *Adapter) post(ctx context.Context, channel string, options []slackapi.MsgOption) error {
	for attempt := 0; ; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		_, _, err := a.client.PostMessage(channel, options...)
		if err == nil {
			return nil
		}

		var limited *slackapi.RateLimitedError
		if !errors.As(err, &limited) || attempt >= a.retry.attempts {
			return err
		}
		wait := limited.RetryAfter
		if wait <= 0 {
			wait = a.retry.delay(attempt)
		}
		a.logger.Warn("slack rate limited",
			zap.String("channel", channel), zap.Duration("retry_in", wait), zap.Int("attempt", attempt+1))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Close stops the socket and closes the inbound channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.stop != nil {
		a.stop()
	}
	close(a.inbound)
	return nil
}

// BotUserID returns the bot's Slack user ID once connected.
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// superviseSocket keeps Socket Mode running until ctx ends, a clean
// shutdown, or the reconnect budget runs out.
func (a *Adapter) superviseSocket(ctx context.Context) {
	for attempt := 0; attempt < a.reconnect.attempts; attempt++ {
		err := a.socket.Run()
		if err == nil || ctx.Err() != nil {
			return
		}

		wait := a.reconnect.delay(attempt)
		a.logger.Warn("slack socket mode disconnected",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", a.reconnect.attempts),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
	a.logger.Error("slack socket mode gave up reconnecting", zap.Int("attempts", a.reconnect.attempts))
}
