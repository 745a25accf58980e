package slack

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/zulandar/concierge/internal/telegraph"
	"go.uber.org/zap"
)

// inboundEntities reverses the escaping Slack applies to message text.
var inboundEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")

func (a *Adapter) pumpEvents(ctx context.Context) {
	events := a.socket.EventsChan()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleSocketEvent(evt)
		}
	}
}

func (a *Adapter) handleSocketEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		api, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			a.socket.Ack(*evt.Request)
		}
		if api.Type != slackevents.CallbackEvent {
			return
		}
		// A channel mention also arrives as a plain message event, so
		// app_mention is skipped to avoid answering the guest twice.
		if ev, ok := api.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			a.handleMessage(ev)
		}
	case socketmode.EventTypeConnected:
		a.logger.Info("slack socket mode connected")
	case socketmode.EventTypeConnectionError:
		a.logger.Warn("slack connection error", zap.Any("data", evt.Data))
	case socketmode.EventTypeDisconnect:
		a.logger.Info("slack requested disconnect, reconnecting")
	}
}

// handleMessage forwards a guest or staff message. The bot's own posts,
// other bots, and edits or deletions are dropped.
func (a *Adapter) handleMessage(ev *slackevents.MessageEvent) {
	if ev.User == "" || ev.User == a.BotUserID() || ev.BotID != "" || ev.SubType != "" {
		return
	}

	a.deliver(telegraph.InboundMessage{
		Platform:  "slack",
		ChannelID: ev.Channel,
		ThreadID:  ev.ThreadTimeStamp,
		UserID:    ev.User,
		UserName:  a.resolveUserName(ev.User),
		Text:      inboundEntities.Replace(ev.Text),
		Timestamp: parseSlackTimestamp(ev.TimeStamp),
	})
}

// deliver never blocks the event pump. Messages after Close, or beyond a
// full buffer, are dropped.
func (a *Adapter) deliver(msg telegraph.InboundMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.inbound <- msg:
	default:
		a.logger.Warn("slack inbound buffer full, dropping message", zap.String("channel", msg.ChannelID))
	}
}

// resolveUserName returns the display name, then the real name, then the
// raw ID. Successful lookups are cached for the adapter's lifetime.
func (a *Adapter) resolveUserName(userID string) string {
	if userID == "" {
		return ""
	}
	a.mu.Lock()
	name, ok := a.userNames[userID]
	a.mu.Unlock()
	if ok {
		return name
	}

	user, err := a.client.GetUserInfo(userID)
	if err != nil {
		a.logger.Debug("slack user lookup failed", zap.String("user", userID), zap.Error(err))
		return userID
	}
	name = user.Profile.DisplayName
	if name == "" {
		name = user.RealName
	}
	if name == "" {
		name = userID
	}
	a.mu.Lock()
	a.userNames[userID] = name
	a.mu.Unlock()
	return name
}

// parseSlackTimestamp keeps the whole seconds of a "1700000000.000100" ts.
func parseSlackTimestamp(ts string) time.Time {
	sec, _, _ := strings.Cut(ts, ".")
	n, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
