package concierge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/concierge/internal/config"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
)

// ReplyFrontDeskHelp lists what the front desk can answer.
const ReplyFrontDeskHelp = "I can help with:\n" +
	"• Check-in / Check-out\n" +
	"• Facilities\n" +
	"• Room availability\n" +
	"You can ask a specific room number (e.g. 'Is room 101 available?')."

// FrontDeskBackend is the persistence the front desk reads.
type FrontDeskBackend interface {
	RoomByNumber(ctx context.Context, number int) (*models.Room, error)
	AvailableRooms(ctx context.Context) ([]models.Room, error)
}

// FrontDeskOpts holds parameters for creating a FrontDesk.
type FrontDeskOpts struct {
	Backend    FrontDeskBackend
	Rooms      dialogue.RoomRange
	CheckIn    string
	CheckOut   string
	Facilities []config.FacilityConfig
}

// FrontDesk answers room, timing and facility questions.
type FrontDesk struct {
	backend    FrontDeskBackend
	rooms      dialogue.RoomRange
	checkIn    string
	checkOut   string
	facilities []config.FacilityConfig
}

// NewFrontDesk creates a FrontDesk.
func NewFrontDesk(opts FrontDeskOpts) (*FrontDesk, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("concierge: front desk: backend is required")
	}
	if opts.Rooms == (dialogue.RoomRange{}) {
		opts.Rooms = dialogue.RoomRange{Min: 100, Max: 109}
	}
	return &FrontDesk{
		backend:    opts.Backend,
		rooms:      opts.Rooms,
		checkIn:    opts.CheckIn,
		checkOut:   opts.CheckOut,
		facilities: opts.Facilities,
	}, nil
}

// Handle answers one message. A specific room number takes priority over
// every other question.
func (f *FrontDesk) Handle(ctx context.Context, message string) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(message))

	if number, ok := f.rooms.Extract(msg); ok {
		room, err := f.backend.RoomByNumber(ctx, number)
		if errors.Is(err, store.ErrNotFound) {
			return "❌ That room does not exist.", nil
		}
		if err != nil {
			return "", fmt.Errorf("concierge: front desk: %w", err)
		}
		status := "occupied"
		if room.IsAvailable {
			status = "available"
		}
		return fmt.Sprintf("✅ Room **%d** is %s.", number, status), nil
	}

	if strings.Contains(msg, "check in") || strings.Contains(msg, "check-in") {
		return fmt.Sprintf("🕑 Check-in time is **%s**.", f.checkIn), nil
	}
	if strings.Contains(msg, "check out") || strings.Contains(msg, "check-out") {
		return fmt.Sprintf("🕚 Check-out time is **%s**.", f.checkOut), nil
	}

	for _, fac := range f.facilities {
		if strings.Contains(msg, strings.ToLower(fac.Name)) {
			return fac.Info, nil
		}
	}
	if strings.Contains(msg, "facilities") || strings.Contains(msg, "facility") {
		return f.facilityList(), nil
	}

	if strings.Contains(msg, "room availability") || strings.Contains(msg, "available room") ||
		strings.Contains(msg, "room available") {
		rooms, err := f.backend.AvailableRooms(ctx)
		if err != nil {
			return "", fmt.Errorf("concierge: front desk: %w", err)
		}
		if len(rooms) == 0 {
			return "❌ No rooms are currently available.", nil
		}
		numbers := make([]string, len(rooms))
		for i, r := range rooms {
			numbers[i] = strconv.Itoa(r.RoomNumber)
		}
		return "✅ Available rooms: " + strings.Join(numbers, ", "), nil
	}

	return ReplyFrontDeskHelp, nil
}

func (f *FrontDesk) facilityList() string {
	var b strings.Builder
	b.WriteString("🏨 **Our facilities include:**\n")
	for _, fac := range f.facilities {
		fmt.Fprintf(&b, "• %s\n", fac.Label)
	}
	if len(f.facilities) > 0 {
		fmt.Fprintf(&b, "\nAsk about any of them (e.g., '%s').", f.facilities[0].Name)
	}
	return strings.TrimRight(b.String(), "\n")
}
