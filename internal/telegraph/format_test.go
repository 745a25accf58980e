package telegraph

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
)

func TestFormatOrder(t *testing.T) {
	a := FormatOrder(models.Order{ID: 7, RoomNumber: 104, Items: "Dosa x2, Idli x1", TotalAmount: 160}, "₹")
	if a.Title != "🍽️ New order #7 for room 104" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Body != "Dosa x2, Idli x1" {
		t.Errorf("Body = %q", a.Body)
	}
	if a.Color != ColorInfo {
		t.Errorf("Color = %q, want %q", a.Color, ColorInfo)
	}
	if len(a.Fields) != 2 || a.Fields[1].Value != "₹160" {
		t.Errorf("Fields = %+v", a.Fields)
	}
}

func TestFormatRequest(t *testing.T) {
	a := FormatRequest(models.ServiceRequest{ID: 3, RoomNumber: 105, RequestType: "Laundry Service"})
	if a.Title != "🧹 Laundry Service for room 105" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Severity != "warning" || a.Color != ColorWarning {
		t.Errorf("severity/color = %q/%q", a.Severity, a.Color)
	}
}

func TestFormatDigest(t *testing.T) {
	start := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)
	s := &store.Summary{
		PeriodStart:  start,
		PeriodEnd:    start.Add(24 * time.Hour),
		Orders:       4,
		OrdersServed: 3,
		Revenue:      412.5,
		Requests:     3,
		RequestsByType: []store.TypeCount{
			{RequestType: "Extra Towels", Count: 2},
			{RequestType: "Room Cleaning", Count: 1},
		},
		PendingRequests: 1,
		OccupiedRooms:   6,
	}
	a := FormatDigest(s, "Palm Grove", "₹")

	if a.Title != "📊 Daily digest for Palm Grove" {
		t.Errorf("Title = %q", a.Title)
	}
	for _, want := range []string{
		"May 1 22:00 to May 2 22:00",
		"Orders: 4 (3 served)",
		"Revenue: ₹412.50",
		"Service requests: 3",
		"• Extra Towels: 2",
	} {
		if !strings.Contains(a.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, a.Body)
		}
	}
	if a.Severity != "warning" {
		t.Errorf("Severity = %q, want warning with pending requests", a.Severity)
	}

	s.PendingRequests = 0
	if got := FormatDigest(s, "", "$"); got.Severity != "success" || got.Title != "📊 Daily digest" {
		t.Errorf("no-pending digest = %+v", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"masala dosa", 3, "mas"},
		{"₹₹₹₹₹", 4, "₹..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
