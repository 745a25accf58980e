package telegraph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
)

// commandPrefix marks a staff command in the staff channel.
const commandPrefix = "!desk"

// commandListLimit bounds how many rows a list command scans.
const commandListLimit = 50

// StaffBackend is the persistence staff commands read and update.
type StaffBackend interface {
	Orders(ctx context.Context, limit int) ([]models.Order, error)
	ServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error)
	AvailableRooms(ctx context.Context) ([]models.Room, error)
	MarkOrderServed(ctx context.Context, id uint) error
	CompleteServiceRequest(ctx context.Context, id uint) error
}

// CommandHandler executes "!desk" commands sent by staff.
type CommandHandler struct {
	backend  StaffBackend
	currency string
}

// CommandHandlerOpts holds parameters for creating a CommandHandler.
type CommandHandlerOpts struct {
	Backend  StaffBackend
	Currency string // defaults to ₹
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(opts CommandHandlerOpts) (*CommandHandler, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("telegraph: command handler: backend is required")
	}
	currency := opts.Currency
	if currency == "" {
		currency = "₹"
	}
	return &CommandHandler{backend: opts.Backend, currency: currency}, nil
}

// isCommand reports whether text starts with the command prefix.
func isCommand(text string) bool {
	text = strings.TrimSpace(text)
	return text == commandPrefix || strings.HasPrefix(text, commandPrefix+" ")
}

// parseCommand strips the prefix and splits the remaining text.
func parseCommand(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, commandPrefix)
	return strings.Fields(text)
}

// Execute runs a "!desk" command and returns the reply text.
func (h *CommandHandler) Execute(ctx context.Context, text string) string {
	args := parseCommand(text)
	if len(args) == 0 {
		return helpText()
	}

	switch strings.ToLower(args[0]) {
	case "orders":
		return h.cmdOrders(ctx)
	case "requests":
		return h.cmdRequests(ctx)
	case "rooms":
		return h.cmdRooms(ctx)
	case "served":
		return h.cmdServed(ctx, args[1:])
	case "done":
		return h.cmdDone(ctx, args[1:])
	case "help":
		return helpText()
	default:
		return fmt.Sprintf("Unknown command: `%s`\n\n%s", args[0], helpText())
	}
}

func helpText() string {
	return strings.Join([]string{
		"*Concierge staff commands*",
		"`!desk orders` - orders waiting to be served",
		"`!desk requests` - pending service requests",
		"`!desk rooms` - available rooms",
		"`!desk served <order id>` - mark an order served",
		"`!desk done <request id>` - mark a service request completed",
	}, "\n")
}

func (h *CommandHandler) cmdOrders(ctx context.Context) string {
	orders, err := h.backend.Orders(ctx, commandListLimit)
	if err != nil {
		return fmt.Sprintf("Error listing orders: %v", err)
	}
	var lines []string
	for _, o := range orders {
		if o.Status == models.OrderServed {
			continue
		}
		lines = append(lines, fmt.Sprintf("#%d room %d: %s (%s%s)",
			o.ID, o.RoomNumber, truncate(o.Items, 80), h.currency, dialogue.FormatPrice(o.TotalAmount)))
	}
	if len(lines) == 0 {
		return "No orders waiting to be served."
	}
	return "*Orders to serve*\n" + strings.Join(lines, "\n")
}

func (h *CommandHandler) cmdRequests(ctx context.Context) string {
	reqs, err := h.backend.ServiceRequests(ctx, commandListLimit)
	if err != nil {
		return fmt.Sprintf("Error listing requests: %v", err)
	}
	var lines []string
	for _, r := range reqs {
		if r.Status != models.RequestPending {
			continue
		}
		lines = append(lines, fmt.Sprintf("#%d room %d: %s", r.ID, r.RoomNumber, r.RequestType))
	}
	if len(lines) == 0 {
		return "No pending service requests."
	}
	return "*Pending requests*\n" + strings.Join(lines, "\n")
}

func (h *CommandHandler) cmdRooms(ctx context.Context) string {
	rooms, err := h.backend.AvailableRooms(ctx)
	if err != nil {
		return fmt.Sprintf("Error listing rooms: %v", err)
	}
	if len(rooms) == 0 {
		return "No rooms available."
	}
	nums := make([]string, len(rooms))
	for i, r := range rooms {
		nums[i] = strconv.Itoa(r.RoomNumber)
	}
	return fmt.Sprintf("Available rooms (%d): %s", len(rooms), strings.Join(nums, ", "))
}

func (h *CommandHandler) cmdServed(ctx context.Context, args []string) string {
	id, ok := parseCommandID(args)
	if !ok {
		return "Usage: `!desk served <order id>`"
	}
	if err := h.backend.MarkOrderServed(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("Order #%d not found.", id)
		}
		return fmt.Sprintf("Error updating order #%d: %v", id, err)
	}
	return fmt.Sprintf("✅ Order #%d marked served.", id)
}

func (h *CommandHandler) cmdDone(ctx context.Context, args []string) string {
	id, ok := parseCommandID(args)
	if !ok {
		return "Usage: `!desk done <request id>`"
	}
	if err := h.backend.CompleteServiceRequest(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("Request #%d not found.", id)
		}
		return fmt.Sprintf("Error updating request #%d: %v", id, err)
	}
	return fmt.Sprintf("✅ Request #%d marked completed.", id)
}

// parseCommandID reads a positive id, tolerating a leading "#".
func parseCommandID(args []string) (uint, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
