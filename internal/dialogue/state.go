// Package dialogue implements the multi-turn food ordering conversation:
// item and quantity extraction, catalog matching, slot filling for
// quantities and the room number, and the final order commit.
package dialogue

import (
	"regexp"
	"strconv"
	"time"
)

// Stage is a position in the ordering conversation.
type Stage string

const (
	StageAwaitingItems    Stage = "awaiting_items"
	StageAwaitingQuantity Stage = "awaiting_quantity"
	StageAwaitingRoom     Stage = "awaiting_room"
)

// OrderLine is one catalog item in an order. A zero Quantity means the
// guest has not been asked yet.
type OrderLine struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity,omitempty"`
}

// HasQuantity reports whether the line's quantity is resolved.
func (l OrderLine) HasQuantity() bool {
	return l.Quantity > 0
}

// State is a session's in-progress order.
type State struct {
	Stage        Stage       `json:"stage"`
	Items        []OrderLine `json:"items,omitempty"`
	CurrentIndex int         `json:"current_index"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewState returns a state at the start of the conversation.
func NewState() *State {
	return &State{Stage: StageAwaitingItems}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Items != nil {
		c.Items = make([]OrderLine, len(s.Items))
		copy(c.Items, s.Items)
	}
	return &c
}

// Preempts reports whether the conversation has progressed far enough that
// every message must be forwarded to it instead of being re-classified.
func (s *State) Preempts() bool {
	if s == nil {
		return false
	}
	return s.Stage == StageAwaitingQuantity || s.Stage == StageAwaitingRoom
}

// nextUnset returns the index of the first line without a quantity, or -1.
func (s *State) nextUnset() int {
	for i, line := range s.Items {
		if !line.HasQuantity() {
			return i
		}
	}
	return -1
}

// consistent reports whether the stage invariants hold.
func (s *State) consistent() bool {
	switch s.Stage {
	case StageAwaitingItems:
		return true
	case StageAwaitingQuantity:
		return s.CurrentIndex >= 0 && s.CurrentIndex < len(s.Items) &&
			!s.Items[s.CurrentIndex].HasQuantity()
	case StageAwaitingRoom:
		return len(s.Items) > 0 && s.nextUnset() == -1
	}
	return false
}

var roomPattern = regexp.MustCompile(`\b(\d{3})\b`)

// RoomRange is the reserved room numbering scheme, inclusive.
type RoomRange struct {
	Min int
	Max int
}

// Extract returns the first three-digit number in text that lies within r.
func (r RoomRange) Extract(text string) (int, bool) {
	for _, m := range roomPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= r.Min && n <= r.Max {
			return n, true
		}
	}
	return 0, false
}
