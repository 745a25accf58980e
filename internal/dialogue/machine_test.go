package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
)

type fakeBackend struct {
	items     []models.MenuItem
	rooms     map[int]bool
	orders    []*models.Order
	createErr error
	roomErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		items: []models.MenuItem{
			{ID: 1, ItemName: "Idli", Description: "Steamed rice cakes", Price: 40, Available: true},
			{ID: 2, ItemName: "Dosa", Price: 60, Available: true},
			{ID: 3, ItemName: "Masala Dosa", Price: 80, Available: true},
			{ID: 4, ItemName: "Vada", Price: 35, Available: false},
			{ID: 5, ItemName: "Poha", Price: 45, Available: true},
		},
		rooms: map[int]bool{101: true, 102: true, 103: false},
	}
}

func (f *fakeBackend) AvailableMenuItems(context.Context) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, it := range f.items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeBackend) RoomByNumber(_ context.Context, n int) (*models.Room, error) {
	if f.roomErr != nil {
		return nil, f.roomErr
	}
	avail, ok := f.rooms[n]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Room{RoomNumber: n, IsAvailable: avail}, nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, o *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = uint(len(f.orders) + 1)
	f.orders = append(f.orders, o)
	return nil
}

func testMachine(t *testing.T, b Backend) *Machine {
	t.Helper()
	m, err := NewMachine(MachineOpts{Backend: b})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func step(t *testing.T, m *Machine, st *State, msg string) Result {
	t.Helper()
	res, err := m.Step(context.Background(), st, msg)
	if err != nil {
		t.Fatalf("Step(%q): %v", msg, err)
	}
	return res
}

func TestNewMachine_RequiresBackend(t *testing.T) {
	if _, err := NewMachine(MachineOpts{}); err == nil {
		t.Fatal("expected error for missing backend")
	}
}

func TestStep_QuantityPrefilledGoesStraightToRoom(t *testing.T) {
	b := newFakeBackend()
	m := testMachine(t, b)

	res := step(t, m, nil, "one dosa")
	if res.State == nil || res.State.Stage != StageAwaitingRoom {
		t.Fatalf("state = %+v, want awaiting_room", res.State)
	}
	if len(res.State.Items) != 1 || res.State.Items[0].Name != "Dosa" || res.State.Items[0].Quantity != 1 {
		t.Fatalf("items = %+v, want [Dosa x1]", res.State.Items)
	}
	if res.Reply != ReplyAskRoom {
		t.Errorf("reply = %q, want room prompt", res.Reply)
	}

	res = step(t, m, res.State, "101")
	if res.State != nil {
		t.Errorf("state = %+v, want nil after commit", res.State)
	}
	if !strings.Contains(res.Reply, "Order confirmed for room 101") {
		t.Errorf("reply = %q, want confirmation", res.Reply)
	}
	if !strings.Contains(res.Reply, "Total ₹60") {
		t.Errorf("reply = %q, want total ₹60", res.Reply)
	}
	if len(b.orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(b.orders))
	}
	o := b.orders[0]
	if o.TotalAmount != 60 || o.Status != models.OrderConfirmed || o.Items != "Dosa x1" || o.RoomNumber != 101 {
		t.Errorf("order = %+v", o)
	}
	if res.Committed != o {
		t.Error("Committed does not point at the persisted order")
	}
}

func TestStep_SlotFillsEachMissingQuantity(t *testing.T) {
	b := newFakeBackend()
	m := testMachine(t, b)

	res := step(t, m, nil, "idli and 2 poha and dosa")
	if res.State.Stage != StageAwaitingQuantity || res.State.CurrentIndex != 0 {
		t.Fatalf("state = %+v, want awaiting_quantity at 0", res.State)
	}
	if res.Reply != "How many **Idli** would you like?" {
		t.Errorf("reply = %q", res.Reply)
	}

	res = step(t, m, res.State, "three")
	if res.State.Stage != StageAwaitingQuantity || res.State.CurrentIndex != 2 {
		t.Fatalf("state = %+v, want awaiting_quantity at 2", res.State)
	}
	if res.Reply != "How many **Dosa** would you like?" {
		t.Errorf("reply = %q", res.Reply)
	}

	res = step(t, m, res.State, "1")
	if res.State.Stage != StageAwaitingRoom {
		t.Fatalf("stage = %q, want awaiting_room", res.State.Stage)
	}

	res = step(t, m, res.State, "room 102")
	if res.State != nil {
		t.Fatal("expected state cleared after commit")
	}
	o := b.orders[0]
	if o.Items != "Idli x3, Poha x2, Dosa x1" {
		t.Errorf("Items = %q", o.Items)
	}
	if o.Quantity != "3; 2; 1" {
		t.Errorf("Quantity = %q", o.Quantity)
	}
	if o.TotalAmount != 3*40+2*45+60 {
		t.Errorf("TotalAmount = %v, want %v", o.TotalAmount, 3*40+2*45+60)
	}
}

func TestStep_BareItemAsksQuantity(t *testing.T) {
	m := testMachine(t, newFakeBackend())

	res := step(t, m, nil, "Idli")
	if res.State.Stage != StageAwaitingQuantity || res.State.Items[0].Name != "Idli" {
		t.Errorf("state = %+v, want awaiting_quantity for Idli", res.State)
	}
}

func TestStep_NoSegmentsFallsBackToHelp(t *testing.T) {
	m := testMachine(t, newFakeBackend())

	res := step(t, m, nil, "2")
	if res.Reply != ReplyOrderHelp {
		t.Errorf("reply = %q, want help", res.Reply)
	}
	if res.State.Stage != StageAwaitingItems {
		t.Errorf("stage = %q, want awaiting_items", res.State.Stage)
	}
}

func TestStep_UnrecognizedItems(t *testing.T) {
	m := testMachine(t, newFakeBackend())

	res := step(t, m, nil, "2 pizza, 1 burger")
	if res.Reply != ReplyNotRecognized {
		t.Errorf("reply = %q, want not recognized", res.Reply)
	}
	if res.State.Stage != StageAwaitingItems || len(res.State.Items) != 0 {
		t.Errorf("state = %+v, want empty awaiting_items", res.State)
	}
}

func TestStep_UnavailableItemIgnored(t *testing.T) {
	m := testMachine(t, newFakeBackend())

	res := step(t, m, nil, "2 vada")
	for _, line := range res.State.Items {
		if line.Name == "Vada" {
			t.Fatalf("state = %+v, unavailable item ordered", res.State)
		}
	}
	if strings.Contains(res.Reply, "Vada") {
		t.Errorf("reply = %q, mentions unavailable item", res.Reply)
	}
}

func TestStep_ZeroQuantityTreatedAsUnset(t *testing.T) {
	m := testMachine(t, newFakeBackend())

	res := step(t, m, nil, "zero idli")
	if res.State.Stage != StageAwaitingQuantity {
		t.Errorf("stage = %q, want awaiting_quantity", res.State.Stage)
	}
}

func TestStep_InvalidQuantityKeepsState(t *testing.T) {
	m := testMachine(t, newFakeBackend())
	st := &State{Stage: StageAwaitingQuantity, Items: []OrderLine{{Name: "Dosa", UnitPrice: 60}}}

	for _, msg := range []string{"lots", "0"} {
		res := step(t, m, st, msg)
		if res.Reply != ReplyInvalidQuantity {
			t.Errorf("Step(%q) reply = %q, want invalid quantity", msg, res.Reply)
		}
		if res.State.Stage != StageAwaitingQuantity || res.State.Items[0].Quantity != 0 {
			t.Errorf("Step(%q) state = %+v, want unchanged", msg, res.State)
		}
	}
}

func TestStep_InvalidRoomRetry(t *testing.T) {
	b := newFakeBackend()
	m := testMachine(t, b)
	st := &State{Stage: StageAwaitingRoom, Items: []OrderLine{{Name: "Idli", UnitPrice: 40, Quantity: 2}}}

	res := step(t, m, st, "999")
	if res.State == nil || res.State.Stage != StageAwaitingRoom {
		t.Fatalf("state = %+v, want awaiting_room", res.State)
	}
	if len(res.State.Items) != 1 || res.State.Items[0].Quantity != 2 {
		t.Errorf("items = %+v, want preserved", res.State.Items)
	}
	if res.Reply != ReplyRoomFormat {
		t.Errorf("reply = %q", res.Reply)
	}

	// In range but not a real room.
	res = step(t, m, res.State, "108")
	if res.Reply != ReplyInvalidRoom || res.State.Stage != StageAwaitingRoom {
		t.Errorf("reply = %q, state = %+v", res.Reply, res.State)
	}

	res = step(t, m, res.State, "101")
	if res.State != nil {
		t.Fatal("expected commit")
	}
	if len(b.orders) != 1 || b.orders[0].TotalAmount != 80 || b.orders[0].Items != "Idli x2" {
		t.Errorf("orders = %+v", b.orders)
	}
}

func TestStep_CommitFailureKeepsCallerState(t *testing.T) {
	b := newFakeBackend()
	b.createErr = errors.New("db down")
	m := testMachine(t, b)
	st := &State{Stage: StageAwaitingRoom, Items: []OrderLine{{Name: "Idli", UnitPrice: 40, Quantity: 1}}}

	_, err := m.Step(context.Background(), st, "101")
	if err == nil {
		t.Fatal("expected commit error")
	}
	if st.Stage != StageAwaitingRoom || len(st.Items) != 1 {
		t.Errorf("input state mutated: %+v", st)
	}
}

func TestStep_RoomLookupError(t *testing.T) {
	b := newFakeBackend()
	b.roomErr = errors.New("timeout")
	m := testMachine(t, b)
	st := &State{Stage: StageAwaitingRoom, Items: []OrderLine{{Name: "Idli", UnitPrice: 40, Quantity: 1}}}

	if _, err := m.Step(context.Background(), st, "101"); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestStep_MenuDoesNotAdvance(t *testing.T) {
	m := testMachine(t, newFakeBackend())
	st := &State{Stage: StageAwaitingQuantity, Items: []OrderLine{{Name: "Dosa", UnitPrice: 60}}}

	res := step(t, m, st, "show me the MENU")
	if !strings.HasPrefix(res.Reply, "🍽️ **Here is our menu:**") {
		t.Errorf("reply = %q, want menu", res.Reply)
	}
	if !strings.Contains(res.Reply, "- **Idli** (₹40)\n  Steamed rice cakes") {
		t.Errorf("menu missing Idli with description: %q", res.Reply)
	}
	if strings.Contains(res.Reply, "Vada") {
		t.Error("menu lists unavailable item")
	}
	if res.State.Stage != StageAwaitingQuantity {
		t.Errorf("stage = %q, want unchanged", res.State.Stage)
	}
}

func TestStep_InconsistentStateRestarts(t *testing.T) {
	m := testMachine(t, newFakeBackend())
	st := &State{Stage: StageAwaitingRoom}

	res := step(t, m, st, "two idli")
	if res.State.Stage != StageAwaitingRoom || res.State.Items[0].Name != "Idli" {
		t.Errorf("state = %+v, want fresh order for Idli", res.State)
	}
}

func TestFormatMenu_Empty(t *testing.T) {
	if got := FormatMenu(nil, "₹"); got != ReplyMenuEmpty {
		t.Errorf("FormatMenu(nil) = %q", got)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := map[float64]string{40: "40", 80.5: "80.50", 0: "0"}
	for in, want := range tests {
		if got := FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}
