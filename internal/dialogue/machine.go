package dialogue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zulandar/concierge/internal/matcher"
	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
)

// Guest-facing replies.
const (
	ReplyNotRecognized   = "I couldn't recognize those items. Please check the menu."
	ReplyAskRoom         = "🛏️ Please tell me your room number to place the order."
	ReplyInvalidQuantity = "Please enter a valid quantity (e.g., 1, 2, two)."
	ReplyRoomFormat      = "Please provide a valid room number (e.g., 101)."
	ReplyInvalidRoom     = "❌ Invalid room number."
	ReplyOrderHelp       = "You can ask for the menu or name an item to order."
	ReplyMenuEmpty       = "Sorry, nothing is available to order right now."
)

var menuWord = regexp.MustCompile(`\bmenu\b`)

// Backend is the persistence the ordering conversation needs.
type Backend interface {
	AvailableMenuItems(ctx context.Context) ([]models.MenuItem, error)
	RoomByNumber(ctx context.Context, number int) (*models.Room, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

// MachineOpts holds parameters for creating a Machine.
type MachineOpts struct {
	Backend          Backend
	CatalogThreshold int       // defaults to matcher.DefaultThreshold
	Rooms            RoomRange // defaults to 100-109
	Currency         string    // defaults to ₹
}

// Machine drives the ordering conversation. It holds no per-session data;
// callers pass the session's State into Step and persist what comes back.
type Machine struct {
	backend   Backend
	threshold int
	rooms     RoomRange
	currency  string
}

// NewMachine creates a Machine.
func NewMachine(opts MachineOpts) (*Machine, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("dialogue: machine: backend is required")
	}
	m := &Machine{
		backend:   opts.Backend,
		threshold: opts.CatalogThreshold,
		rooms:     opts.Rooms,
		currency:  opts.Currency,
	}
	if m.threshold <= 0 {
		m.threshold = matcher.DefaultThreshold
	}
	if m.rooms == (RoomRange{}) {
		m.rooms = RoomRange{Min: 100, Max: 109}
	}
	if m.currency == "" {
		m.currency = "₹"
	}
	return m, nil
}

// Result is the outcome of one conversation step. A nil State means the
// conversation finished and the session's state must be removed.
type Result struct {
	Reply     string
	State     *State
	Committed *models.Order
}

// Step advances the conversation by one guest message. The input state is
// never modified. On error the caller must keep the previous state.
func (m *Machine) Step(ctx context.Context, st *State, message string) (Result, error) {
	if st == nil {
		st = NewState()
	}
	next := st.Clone()
	if !next.consistent() {
		next = NewState()
	}
	msg := strings.ToLower(strings.TrimSpace(message))

	if menuWord.MatchString(msg) {
		reply, err := m.menu(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Reply: reply, State: next}, nil
	}

	switch next.Stage {
	case StageAwaitingQuantity:
		return m.stepQuantity(next, msg), nil
	case StageAwaitingRoom:
		return m.stepRoom(ctx, next, msg)
	default:
		return m.stepItems(ctx, next, msg)
	}
}

func (m *Machine) stepItems(ctx context.Context, st *State, msg string) (Result, error) {
	catalog, err := m.backend.AvailableMenuItems(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("dialogue: load catalog: %w", err)
	}

	parsed := ParseItemsWithQuantity(msg)
	if len(parsed) == 0 {
		item, ok := matcher.MatchCatalog(msg, catalog, m.threshold)
		if !ok {
			return Result{Reply: ReplyOrderHelp, State: st}, nil
		}
		st.Items = []OrderLine{{Name: item.ItemName, UnitPrice: item.Price}}
		st.CurrentIndex = 0
		st.Stage = StageAwaitingQuantity
		return Result{Reply: quantityPrompt(item.ItemName), State: st}, nil
	}

	var lines []OrderLine
	for _, p := range parsed {
		item, ok := matcher.MatchCatalog(p.Text, catalog, m.threshold)
		if !ok {
			continue
		}
		line := OrderLine{Name: item.ItemName, UnitPrice: item.Price}
		if p.HasQuantity && p.Quantity > 0 {
			line.Quantity = p.Quantity
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		st.Items = nil
		st.CurrentIndex = 0
		return Result{Reply: ReplyNotRecognized, State: st}, nil
	}

	st.Items = lines
	return m.advance(st), nil
}

func (m *Machine) stepQuantity(st *State, msg string) Result {
	q, ok := ParseQuantity(msg)
	if !ok || q < 1 {
		return Result{Reply: ReplyInvalidQuantity, State: st}
	}
	st.Items[st.CurrentIndex].Quantity = q
	return m.advance(st)
}

// advance moves to the next line without a quantity, or to the room slot.
func (m *Machine) advance(st *State) Result {
	if idx := st.nextUnset(); idx >= 0 {
		st.CurrentIndex = idx
		st.Stage = StageAwaitingQuantity
		return Result{Reply: quantityPrompt(st.Items[idx].Name), State: st}
	}
	st.CurrentIndex = 0
	st.Stage = StageAwaitingRoom
	return Result{Reply: ReplyAskRoom, State: st}
}

func (m *Machine) stepRoom(ctx context.Context, st *State, msg string) (Result, error) {
	number, ok := m.rooms.Extract(msg)
	if !ok {
		return Result{Reply: ReplyRoomFormat, State: st}, nil
	}
	if _, err := m.backend.RoomByNumber(ctx, number); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{Reply: ReplyInvalidRoom, State: st}, nil
		}
		return Result{}, fmt.Errorf("dialogue: look up room %d: %w", number, err)
	}

	order := BuildOrder(number, st.Items)
	if err := m.backend.CreateOrder(ctx, order); err != nil {
		return Result{}, fmt.Errorf("dialogue: commit order: %w", err)
	}

	reply := fmt.Sprintf("✅ Order confirmed for room %d: %s. Total %s%s",
		number, order.Items, m.currency, FormatPrice(order.TotalAmount))
	return Result{Reply: reply, Committed: order}, nil
}

// BuildOrder summarizes resolved order lines into a confirmed order.
func BuildOrder(room int, lines []OrderLine) *models.Order {
	items := make([]string, len(lines))
	quantities := make([]string, len(lines))
	total := 0.0
	for i, line := range lines {
		items[i] = fmt.Sprintf("%s x%d", line.Name, line.Quantity)
		quantities[i] = strconv.Itoa(line.Quantity)
		total += line.UnitPrice * float64(line.Quantity)
	}
	return &models.Order{
		RoomNumber:  room,
		Items:       strings.Join(items, ", "),
		Quantity:    strings.Join(quantities, "; "),
		TotalAmount: total,
		Status:      models.OrderConfirmed,
	}
}

func (m *Machine) menu(ctx context.Context) (string, error) {
	items, err := m.backend.AvailableMenuItems(ctx)
	if err != nil {
		return "", fmt.Errorf("dialogue: load catalog: %w", err)
	}
	return FormatMenu(items, m.currency), nil
}

// FormatMenu renders the catalog listing shown to guests.
func FormatMenu(items []models.MenuItem, currency string) string {
	if len(items) == 0 {
		return ReplyMenuEmpty
	}
	var b strings.Builder
	b.WriteString("🍽️ **Here is our menu:**\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- **%s** (%s%s)\n", item.ItemName, currency, FormatPrice(item.Price))
		if item.Description != "" {
			fmt.Fprintf(&b, "  %s\n", item.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatPrice prints whole amounts without decimals.
func FormatPrice(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func quantityPrompt(name string) string {
	return fmt.Sprintf("How many **%s** would you like?", name)
}
