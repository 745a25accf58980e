package concierge

import (
	"context"
	"fmt"
	"strings"

	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
	"go.uber.org/zap"
)

// ReplyHousekeepingHelp lists the housekeeping services.
const ReplyHousekeepingHelp = "I can help with room cleaning, laundry, towels, toiletries, pillows, or blankets."

// housekeepingCategory maps message words to a request type.
type housekeepingCategory struct {
	words       []string
	requestType string
}

// housekeepingCategories are checked in order; the first match wins.
var housekeepingCategories = []housekeepingCategory{
	{[]string{"clean"}, "Room Cleaning"},
	{[]string{"laundry"}, "Laundry Service"},
	{[]string{"towel"}, "Extra Towels"},
	{[]string{"toothpaste", "toiletries"}, "Toiletries"},
	{[]string{"pillow"}, "Extra Pillow"},
	{[]string{"blanket"}, "Extra Blanket"},
}

// HousekeepingBackend is the persistence housekeeping writes to.
type HousekeepingBackend interface {
	CreateServiceRequest(ctx context.Context, req *models.ServiceRequest) error
}

// HousekeepingOpts holds parameters for creating a Housekeeping handler.
type HousekeepingOpts struct {
	Backend HousekeepingBackend
	Rooms   dialogue.RoomRange
	// DefaultRoom is used when the message names no room.
	DefaultRoom int
	Logger      *zap.Logger
}

// Housekeeping turns guest messages into pending service requests.
type Housekeeping struct {
	backend     HousekeepingBackend
	rooms       dialogue.RoomRange
	defaultRoom int
	logger      *zap.Logger
}

// NewHousekeeping creates a Housekeeping handler.
func NewHousekeeping(opts HousekeepingOpts) (*Housekeeping, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("concierge: housekeeping: backend is required")
	}
	if opts.Rooms == (dialogue.RoomRange{}) {
		opts.Rooms = dialogue.RoomRange{Min: 100, Max: 109}
	}
	if opts.DefaultRoom == 0 {
		opts.DefaultRoom = 101
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Housekeeping{
		backend:     opts.Backend,
		rooms:       opts.Rooms,
		defaultRoom: opts.DefaultRoom,
		logger:      opts.Logger,
	}, nil
}

// Handle records the first matching request category.
func (h *Housekeeping) Handle(ctx context.Context, message string) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(message))

	requestType := ""
	for _, cat := range housekeepingCategories {
		if containsAny(msg, cat.words) {
			requestType = cat.requestType
			break
		}
	}
	if requestType == "" {
		return ReplyHousekeepingHelp, nil
	}

	room, ok := h.rooms.Extract(msg)
	if !ok {
		room = h.defaultRoom
		h.logger.Warn("housekeeping request without room number, using default room",
			zap.String("request_type", requestType), zap.Int("room", room))
	}

	req := &models.ServiceRequest{
		RoomNumber:  room,
		RequestType: requestType,
		Status:      models.RequestPending,
	}
	if err := h.backend.CreateServiceRequest(ctx, req); err != nil {
		return "", fmt.Errorf("concierge: housekeeping: %w", err)
	}
	return fmt.Sprintf("%s request has been placed successfully.", requestType), nil
}
