package dialogue

import "testing"

func TestState_Clone(t *testing.T) {
	st := &State{Stage: StageAwaitingQuantity, Items: []OrderLine{{Name: "Dosa", UnitPrice: 60}}}
	c := st.Clone()
	c.Items[0].Quantity = 4
	c.Stage = StageAwaitingRoom

	if st.Items[0].Quantity != 0 {
		t.Error("clone shares items with original")
	}
	if st.Stage != StageAwaitingQuantity {
		t.Error("clone shares stage with original")
	}
	if (*State)(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestState_Preempts(t *testing.T) {
	tests := []struct {
		st   *State
		want bool
	}{
		{nil, false},
		{NewState(), false},
		{&State{Stage: StageAwaitingQuantity}, true},
		{&State{Stage: StageAwaitingRoom}, true},
	}
	for _, tt := range tests {
		if got := tt.st.Preempts(); got != tt.want {
			t.Errorf("Preempts(%+v) = %v, want %v", tt.st, got, tt.want)
		}
	}
}

func TestState_Consistent(t *testing.T) {
	tests := []struct {
		name string
		st   State
		want bool
	}{
		{"items", State{Stage: StageAwaitingItems}, true},
		{"quantity ok", State{Stage: StageAwaitingQuantity, Items: []OrderLine{{Name: "Idli"}}}, true},
		{"quantity index out of range", State{Stage: StageAwaitingQuantity, CurrentIndex: 3, Items: []OrderLine{{Name: "Idli"}}}, false},
		{"quantity already set", State{Stage: StageAwaitingQuantity, Items: []OrderLine{{Name: "Idli", Quantity: 1}}}, false},
		{"room ok", State{Stage: StageAwaitingRoom, Items: []OrderLine{{Name: "Idli", Quantity: 1}}}, true},
		{"room without items", State{Stage: StageAwaitingRoom}, false},
		{"room with unset quantity", State{Stage: StageAwaitingRoom, Items: []OrderLine{{Name: "Idli"}}}, false},
		{"unknown stage", State{Stage: "bogus"}, false},
	}
	for _, tt := range tests {
		if got := tt.st.consistent(); got != tt.want {
			t.Errorf("%s: consistent() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoomRange_Extract(t *testing.T) {
	r := RoomRange{Min: 100, Max: 109}
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"101", 101, true},
		{"room 105 please", 105, true},
		{"999", 0, false},
		{"999 or 104", 104, true},
		{"1010", 0, false},
		{"room ten", 0, false},
	}
	for _, tt := range tests {
		got, ok := r.Extract(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Extract(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
