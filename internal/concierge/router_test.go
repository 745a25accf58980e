package concierge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zulandar/concierge/internal/classifier"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
)

func TestNewRouter_Validation(t *testing.T) {
	s := testStore(t)
	machine, _ := dialogue.NewMachine(dialogue.MachineOpts{Backend: s})
	full := RouterOpts{
		Sessions:     dialogue.NewMemoryStore(0),
		Dialogue:     machine,
		FrontDesk:    testFrontDesk(t, s),
		Housekeeping: testHousekeeping(t, s),
	}

	tests := []struct {
		name   string
		mutate func(*RouterOpts)
		want   string
	}{
		{"sessions", func(o *RouterOpts) { o.Sessions = nil }, "session store is required"},
		{"dialogue", func(o *RouterOpts) { o.Dialogue = nil }, "dialogue is required"},
		{"front desk", func(o *RouterOpts) { o.FrontDesk = nil }, "front desk is required"},
		{"housekeeping", func(o *RouterOpts) { o.Housekeeping = nil }, "housekeeping is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := full
			tt.mutate(&opts)
			_, err := NewRouter(opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("NewRouter error = %v, want %q", err, tt.want)
			}
		})
	}

	r, err := NewRouter(full)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if r.keywordThreshold != DefaultKeywordThreshold || r.classifierTimeout != DefaultClassifierTimeout {
		t.Errorf("defaults = %d, %v", r.keywordThreshold, r.classifierTimeout)
	}
}

func TestRoute_HousekeepingKeyword(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	got := env.route("u1", "I need room cleaning")
	if got != "Room Cleaning request has been placed successfully." {
		t.Errorf("reply = %q", got)
	}
	reqs, _ := env.store.ServiceRequests(context.Background(), 0)
	if len(reqs) != 1 {
		t.Errorf("len(requests) = %d, want 1", len(reqs))
	}
}

func TestRoute_HousekeepingInterruptsAwaitingItems(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	ctx := context.Background()
	env.sessions.Put(ctx, "u1", dialogue.NewState())

	got := env.route("u1", "can i get a towel")
	if got != "Extra Towels request has been placed successfully." {
		t.Errorf("reply = %q, want housekeeping confirmation", got)
	}
	st, err := env.sessions.Get(ctx, "u1")
	if err != nil || st.Stage != dialogue.StageAwaitingItems {
		t.Errorf("state = %+v, %v; want untouched awaiting_items", st, err)
	}
}

func TestRoute_LaterStagesPreempt(t *testing.T) {
	tests := []struct {
		name      string
		st        *dialogue.State
		msg       string
		wantReply string
	}{
		{
			name:      "awaiting quantity",
			st:        &dialogue.State{Stage: dialogue.StageAwaitingQuantity, Items: []dialogue.OrderLine{{Name: "Dosa", UnitPrice: 60}}},
			msg:       "2 towels",
			wantReply: dialogue.ReplyAskRoom,
		},
		{
			name:      "awaiting room",
			st:        &dialogue.State{Stage: dialogue.StageAwaitingRoom, Items: []dialogue.OrderLine{{Name: "Dosa", UnitPrice: 60, Quantity: 1}}},
			msg:       "what time is check out",
			wantReply: dialogue.ReplyRoomFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, RouterOpts{})
			env.sessions.Put(context.Background(), "u1", tt.st)

			if got := env.route("u1", tt.msg); got != tt.wantReply {
				t.Errorf("reply = %q, want %q", got, tt.wantReply)
			}
			reqs, _ := env.store.ServiceRequests(context.Background(), 0)
			if len(reqs) != 0 {
				t.Errorf("housekeeping ran: %d requests", len(reqs))
			}
		})
	}
}

func TestRoute_FrontDeskKeyword(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	if got := env.route("u3", "What is check in time?"); got != "🕑 Check-in time is **2:00 PM**." {
		t.Errorf("reply = %q", got)
	}
}

func TestRoute_MenuRequest(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	got := env.route("u2", "Show me the menu")
	if !strings.Contains(strings.ToLower(got), "menu") || !strings.Contains(got, "Masala Dosa") {
		t.Errorf("reply = %q, want menu listing", got)
	}
}

func TestRoute_OrderRoundTrip(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	ctx := context.Background()

	if got := env.route("guest", "one dosa"); got != dialogue.ReplyAskRoom {
		t.Fatalf("reply = %q, want room prompt", got)
	}
	st, err := env.sessions.Get(ctx, "guest")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.Stage != dialogue.StageAwaitingRoom || len(st.Items) != 1 || st.Items[0].Name != "Dosa" || st.Items[0].Quantity != 1 {
		t.Fatalf("state = %+v, want awaiting_room with Dosa x1", st)
	}

	got := env.route("guest", "101")
	if !strings.Contains(got, "Order confirmed for room 101") || !strings.Contains(got, "Total ₹60") {
		t.Errorf("reply = %q, want confirmation with total", got)
	}
	if _, err := env.sessions.Get(ctx, "guest"); !errors.Is(err, dialogue.ErrSessionNotFound) {
		t.Errorf("state after commit: err = %v, want ErrSessionNotFound", err)
	}

	orders, _ := env.store.Orders(ctx, 0)
	if len(orders) != 1 || orders[0].TotalAmount != 60 || orders[0].Status != models.OrderConfirmed {
		t.Errorf("orders = %+v", orders)
	}

	// A new conversation starts from scratch.
	if got := env.route("guest", "dosa"); got != "How many **Dosa** would you like?" {
		t.Errorf("reply = %q, want fresh quantity prompt", got)
	}
}

func TestRoute_SessionContinuation(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	env.route("u4", "I want dosa")
	got := env.route("u4", "2")
	if !strings.Contains(strings.ToLower(got), "order") {
		t.Errorf("reply = %q, want room prompt mentioning the order", got)
	}
}

func TestRoute_InvalidRoomRetry(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	ctx := context.Background()
	env.route("g", "2 idli")

	if got := env.route("g", "999"); got != dialogue.ReplyRoomFormat {
		t.Errorf("reply = %q", got)
	}
	st, _ := env.sessions.Get(ctx, "g")
	if st == nil || st.Stage != dialogue.StageAwaitingRoom || st.Items[0].Quantity != 2 {
		t.Fatalf("state = %+v, want preserved awaiting_room", st)
	}

	got := env.route("g", "room 104")
	if !strings.Contains(got, "Idli x2") || !strings.Contains(got, "Total ₹80") {
		t.Errorf("reply = %q", got)
	}
}

func TestRoute_FuzzyMatches(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	ctx := context.Background()

	tests := []struct {
		msg  string
		want Target
	}{
		{"need a towl", TargetHousekeeping},
		{"chek in time", TargetFrontDesk},
		{"omlette", TargetDialogue},
	}
	for _, tt := range tests {
		if got := env.router.decide(ctx, nil, tt.msg); got != tt.want {
			t.Errorf("decide(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}

	if got := env.route("f", "need a towl"); got != ReplyHousekeepingHelp {
		t.Errorf("reply = %q, want housekeeping help", got)
	}
}

func TestRoute_DefaultWithoutClassifier(t *testing.T) {
	env := newTestEnv(t, RouterOpts{})
	if got := env.route("u5", "asdfghjkl"); got != ReplyDefault {
		t.Errorf("reply = %q, want default help", got)
	}
	if got := env.route("u5", "   "); got != ReplyDefault {
		t.Errorf("reply = %q, want default help for blank message", got)
	}
}

type stubClassifier struct {
	res   classifier.Result
	block bool
	panic bool
	calls int32
}

func (s *stubClassifier) Classify(ctx context.Context, _ string) classifier.Result {
	atomic.AddInt32(&s.calls, 1)
	if s.panic {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return classifier.Result{Status: classifier.StatusUnavailable, Err: ctx.Err()}
	}
	return s.res
}

// unknownMsg avoids every keyword, exactly and fuzzily.
const unknownMsg = "xyzzy plugh"

func TestRoute_ClassifierIntent(t *testing.T) {
	tests := []struct {
		intent classifier.Intent
		want   string
	}{
		{classifier.IntentFood, dialogue.ReplyNotRecognized},
		{classifier.IntentFrontDesk, ReplyFrontDeskHelp},
		{classifier.IntentHousekeeping, ReplyHousekeepingHelp},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			cls := &stubClassifier{res: classifier.Result{Intent: tt.intent, Status: classifier.StatusOK}}
			env := newTestEnv(t, RouterOpts{Classifier: cls})
			if got := env.route("c", unknownMsg); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
			if cls.calls != 1 {
				t.Errorf("classifier calls = %d, want 1", cls.calls)
			}
		})
	}
}

func TestRoute_ClassifierFailuresFallBack(t *testing.T) {
	tests := []struct {
		name string
		cls  *stubClassifier
	}{
		{"malformed", &stubClassifier{res: classifier.Result{Status: classifier.StatusMalformed, Raw: "pizza"}}},
		{"unavailable", &stubClassifier{res: classifier.Result{Status: classifier.StatusUnavailable, Err: errors.New("no network")}}},
		{"timeout", &stubClassifier{block: true}},
		{"panic", &stubClassifier{panic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, RouterOpts{Classifier: tt.cls, ClassifierTimeout: 20 * time.Millisecond})

			start := time.Now()
			got := env.route("c", unknownMsg)
			if got != ReplyFrontDeskHelp {
				t.Errorf("reply = %q, want front desk help from local fallback", got)
			}
			if elapsed := time.Since(start); elapsed > 2*time.Second {
				t.Errorf("route took %v, classifier wait not bounded", elapsed)
			}
		})
	}
}

func TestClassify_FallbackUsesLocalWords(t *testing.T) {
	cls := &stubClassifier{res: classifier.Result{Status: classifier.StatusMalformed}}
	env := newTestEnv(t, RouterOpts{Classifier: cls})
	if got := env.router.classify(context.Background(), "my bedsheet needs a clean"); got != classifier.IntentHousekeeping {
		t.Errorf("classify = %q, want housekeeping", got)
	}
}

type errHandler struct{ panic bool }

func (h errHandler) Handle(context.Context, string) (string, error) {
	if h.panic {
		panic("nil pointer somewhere")
	}
	return "", errors.New("db down")
}

func TestRoute_HandlerFailuresBecomeBackendError(t *testing.T) {
	for _, h := range []errHandler{{}, {panic: true}} {
		env := newTestEnv(t, RouterOpts{FrontDesk: h})
		if got := env.route("e", "is the gym open"); got != ReplyBackendError {
			t.Errorf("panic=%v: reply = %q, want backend error", h.panic, got)
		}
	}
}

type failingDialogue struct{}

func (failingDialogue) Step(context.Context, *dialogue.State, string) (dialogue.Result, error) {
	return dialogue.Result{}, errors.New("commit failed")
}

func TestRoute_DialogueErrorKeepsState(t *testing.T) {
	env := newTestEnv(t, RouterOpts{Dialogue: failingDialogue{}})
	ctx := context.Background()
	st := &dialogue.State{Stage: dialogue.StageAwaitingRoom, Items: []dialogue.OrderLine{{Name: "Idli", UnitPrice: 40, Quantity: 1}}}
	env.sessions.Put(ctx, "d", st)

	if got := env.route("d", "101"); got != ReplyBackendError {
		t.Errorf("reply = %q, want backend error", got)
	}
	got, err := env.sessions.Get(ctx, "d")
	if err != nil || got.Stage != dialogue.StageAwaitingRoom || len(got.Items) != 1 {
		t.Errorf("state = %+v, %v; want preserved", got, err)
	}
}

// flakyStore wraps a MemoryStore with injectable failures.
type flakyStore struct {
	*dialogue.MemoryStore
	getErr      error
	deleteFails int
	deletes     int
}

func (f *flakyStore) Get(ctx context.Context, id string) (*dialogue.State, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStore.Get(ctx, id)
}

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	f.deletes++
	if f.deletes <= f.deleteFails {
		return errors.New("delete failed")
	}
	return f.MemoryStore.Delete(ctx, id)
}

func TestRoute_SessionStoreError(t *testing.T) {
	fs := &flakyStore{MemoryStore: dialogue.NewMemoryStore(0), getErr: errors.New("redis down")}
	env := newTestEnv(t, RouterOpts{Sessions: fs})
	if got := env.route("s", "menu"); got != ReplyBackendError {
		t.Errorf("reply = %q, want backend error", got)
	}
}

func TestRoute_ClearRetriedAfterCommit(t *testing.T) {
	fs := &flakyStore{MemoryStore: dialogue.NewMemoryStore(0), deleteFails: 1}
	env := newTestEnv(t, RouterOpts{Sessions: fs})

	env.route("s", "one idli")
	got := env.route("s", "101")
	if !strings.Contains(got, "Order confirmed") {
		t.Fatalf("reply = %q, want confirmation", got)
	}
	if fs.deletes != 2 {
		t.Errorf("deletes = %d, want 2 (one retry)", fs.deletes)
	}
	if fs.Len() != 0 {
		t.Errorf("state still stored after retry")
	}
}

// countingDialogue records how many steps run at once per session.
type countingDialogue struct {
	mu       sync.Mutex
	inFlight map[string]int
	maxSeen  int
}

func (c *countingDialogue) Step(ctx context.Context, st *dialogue.State, msg string) (dialogue.Result, error) {
	key := msg
	c.mu.Lock()
	c.inFlight[key]++
	if c.inFlight[key] > c.maxSeen {
		c.maxSeen = c.inFlight[key]
	}
	c.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	c.mu.Lock()
	c.inFlight[key]--
	c.mu.Unlock()
	return dialogue.Result{Reply: "ok", State: dialogue.NewState()}, nil
}

func TestRoute_SerializesSameSession(t *testing.T) {
	cd := &countingDialogue{inFlight: map[string]int{}}
	env := newTestEnv(t, RouterOpts{Dialogue: cd})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The message doubles as the per-session counter key.
			env.route("same", "menu")
		}()
	}
	wg.Wait()

	if cd.maxSeen != 1 {
		t.Errorf("max concurrent steps for one session = %d, want 1", cd.maxSeen)
	}
	if n := env.router.locks.len(); n != 0 {
		t.Errorf("session locks left = %d, want 0", n)
	}
}
