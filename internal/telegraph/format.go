package telegraph

import (
	"fmt"
	"strings"

	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
)

// Color constants for alert severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	default:
		return ColorInfo
	}
}

// FormatOrder formats a newly committed restaurant order for the staff channel.
func FormatOrder(o models.Order, currency string) Alert {
	return Alert{
		Title:    fmt.Sprintf("🍽️ New order #%d for room %d", o.ID, o.RoomNumber),
		Body:     o.Items,
		Severity: "info",
		Color:    severityColor("info"),
		Fields: []Field{
			{Name: "Room", Value: fmt.Sprintf("%d", o.RoomNumber), Short: true},
			{Name: "Total", Value: currency + dialogue.FormatPrice(o.TotalAmount), Short: true},
		},
	}
}

// FormatRequest formats a new housekeeping request for the staff channel.
func FormatRequest(r models.ServiceRequest) Alert {
	return Alert{
		Title:    fmt.Sprintf("🧹 %s for room %d", r.RequestType, r.RoomNumber),
		Body:     fmt.Sprintf("Service request #%d is pending.", r.ID),
		Severity: "warning",
		Color:    severityColor("warning"),
		Fields: []Field{
			{Name: "Room", Value: fmt.Sprintf("%d", r.RoomNumber), Short: true},
			{Name: "Request", Value: r.RequestType, Short: true},
		},
	}
}

// FormatDigest formats an activity summary.
func FormatDigest(s *store.Summary, hotel, currency string) Alert {
	title := "📊 Daily digest"
	if hotel != "" {
		title += " for " + hotel
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%s to %s",
		s.PeriodStart.Format("Jan 2 15:04"), s.PeriodEnd.Format("Jan 2 15:04")))
	lines = append(lines, fmt.Sprintf("Orders: %d (%d served)", s.Orders, s.OrdersServed))
	lines = append(lines, fmt.Sprintf("Revenue: %s%s", currency, dialogue.FormatPrice(s.Revenue)))
	lines = append(lines, fmt.Sprintf("Service requests: %d", s.Requests))
	for _, tc := range s.RequestsByType {
		lines = append(lines, fmt.Sprintf("  • %s: %d", tc.RequestType, tc.Count))
	}

	severity := "success"
	if s.PendingRequests > 0 {
		severity = "warning"
	}
	return Alert{
		Title:    title,
		Body:     strings.Join(lines, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields: []Field{
			{Name: "Pending requests", Value: fmt.Sprintf("%d", s.PendingRequests), Short: true},
			{Name: "Occupied rooms", Value: fmt.Sprintf("%d", s.OccupiedRooms), Short: true},
		},
	}
}

// truncate shortens s to at most n runes, adding "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
