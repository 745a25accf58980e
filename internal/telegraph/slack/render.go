package slack

import (
	"fmt"
	"regexp"
	"strings"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/concierge/internal/telegraph"
)

// Block Kit limits.
const (
	maxHeaderRunes   = 150
	maxSectionRunes  = 3000
	maxSectionFields = 10
)

var (
	// boldPattern matches the **bold** markup used in concierge replies.
	boldPattern      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	outboundEntities = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// toMrkdwn escapes the characters Slack reserves and rewrites **bold** as
// Slack's *bold*.
func toMrkdwn(text string) string {
	return boldPattern.ReplaceAllString(outboundEntities.Replace(text), "*$1*")
}

// messageOptions renders msg. The top-level text doubles as the
// notification preview, so alert-only messages use their titles.
func messageOptions(msg telegraph.OutboundMessage) []slackapi.MsgOption {
	options := []slackapi.MsgOption{slackapi.MsgOptionText(previewText(msg), false)}
	if msg.ThreadID != "" {
		options = append(options, slackapi.MsgOptionTS(msg.ThreadID))
	}
	if len(msg.Alerts) > 0 {
		attachments := make([]slackapi.Attachment, 0, len(msg.Alerts))
		for _, alert := range msg.Alerts {
			attachments = append(attachments, alertAttachment(alert))
		}
		options = append(options, slackapi.MsgOptionAttachments(attachments...))
	}
	return options
}

func previewText(msg telegraph.OutboundMessage) string {
	if msg.Text != "" || len(msg.Alerts) == 0 {
		return toMrkdwn(msg.Text)
	}
	titles := make([]string, 0, len(msg.Alerts))
	for _, alert := range msg.Alerts {
		titles = append(titles, alert.Title)
	}
	return toMrkdwn(strings.Join(titles, "\n"))
}

// alertAttachment wraps the alert's blocks in an attachment so the
// severity color shows as a sidebar.
func alertAttachment(alert telegraph.Alert) slackapi.Attachment {
	return slackapi.Attachment{
		Color:    alert.Color,
		Fallback: alert.Title,
		Blocks:   slackapi.Blocks{BlockSet: alertBlocks(alert)},
	}
}

// alertBlocks lays out a staff alert: a header with the title, a section
// with the body and fields, and a severity footer.
func alertBlocks(alert telegraph.Alert) []slackapi.Block {
	var blocks []slackapi.Block
	if alert.Title != "" {
		title := slackapi.NewTextBlockObject(slackapi.PlainTextType, truncate(alert.Title, maxHeaderRunes), true, false)
		blocks = append(blocks, slackapi.NewHeaderBlock(title))
	}

	var body *slackapi.TextBlockObject
	if alert.Body != "" {
		body = slackapi.NewTextBlockObject(slackapi.MarkdownType, truncate(toMrkdwn(alert.Body), maxSectionRunes), false, false)
	}
	var fields []*slackapi.TextBlockObject
	for _, f := range alert.Fields {
		if len(fields) == maxSectionFields {
			break
		}
		text := fmt.Sprintf("*%s*\n%s", outboundEntities.Replace(f.Name), toMrkdwn(f.Value))
		fields = append(fields, slackapi.NewTextBlockObject(slackapi.MarkdownType, text, false, false))
	}
	if body != nil || len(fields) > 0 {
		blocks = append(blocks, slackapi.NewSectionBlock(body, fields, nil))
	}

	if alert.Severity != "" {
		footer := slackapi.NewTextBlockObject(slackapi.MarkdownType, severityLabel(alert.Severity), false, false)
		blocks = append(blocks, slackapi.NewContextBlock("", footer))
	}
	return blocks
}

func severityLabel(severity string) string {
	switch severity {
	case "success":
		return ":white_check_mark: success"
	case "warning":
		return ":warning: warning"
	default:
		return ":information_source: " + severity
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
