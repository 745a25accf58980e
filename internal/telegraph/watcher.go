package telegraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zulandar/concierge/internal/models"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the watcher checks for new activity.
const DefaultPollInterval = 15 * time.Second

// EventType identifies the kind of event detected by the watcher.
type EventType string

const (
	EventNewOrder   EventType = "new_order"
	EventNewRequest EventType = "new_request"
)

// DetectedEvent is a new order or service request found by the watcher.
type DetectedEvent struct {
	Type      EventType
	Timestamp time.Time
	Order     *models.Order
	Request   *models.ServiceRequest
}

// WatchBackend is the persistence the watcher polls.
type WatchBackend interface {
	Orders(ctx context.Context, limit int) ([]models.Order, error)
	ServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error)
	OrdersAfter(ctx context.Context, afterID uint) ([]models.Order, error)
	ServiceRequestsAfter(ctx context.Context, afterID uint) ([]models.ServiceRequest, error)
}

// Watcher polls for orders and service requests created since the last
// poll. The first poll only records a baseline so staff are not flooded
// with history on startup.
type Watcher struct {
	backend      WatchBackend
	pollInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu          sync.Mutex
	seeded      bool
	lastOrder   uint
	lastRequest uint
}

// WatcherOpts holds parameters for creating a Watcher.
type WatcherOpts struct {
	Backend      WatchBackend
	PollInterval time.Duration // defaults to DefaultPollInterval
	Logger       *zap.Logger
}

// NewWatcher creates a Watcher.
func NewWatcher(opts WatcherOpts) (*Watcher, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("telegraph: watcher: backend is required")
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		backend:      opts.Backend,
		pollInterval: poll,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Poll runs one detection cycle and returns the events found, orders first.
func (w *Watcher) Poll(ctx context.Context) ([]DetectedEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.seeded {
		if err := w.seed(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	orders, err := w.backend.OrdersAfter(ctx, w.lastOrder)
	if err != nil {
		return nil, fmt.Errorf("telegraph: watcher: orders: %w", err)
	}
	reqs, err := w.backend.ServiceRequestsAfter(ctx, w.lastRequest)
	if err != nil {
		return nil, fmt.Errorf("telegraph: watcher: service requests: %w", err)
	}

	now := w.now()
	events := make([]DetectedEvent, 0, len(orders)+len(reqs))
	for i := range orders {
		events = append(events, DetectedEvent{Type: EventNewOrder, Timestamp: now, Order: &orders[i]})
		w.lastOrder = orders[i].ID
	}
	for i := range reqs {
		events = append(events, DetectedEvent{Type: EventNewRequest, Timestamp: now, Request: &reqs[i]})
		w.lastRequest = reqs[i].ID
	}
	return events, nil
}

// seed records the newest existing IDs as the baseline.
func (w *Watcher) seed(ctx context.Context) error {
	orders, err := w.backend.Orders(ctx, 1)
	if err != nil {
		return fmt.Errorf("telegraph: watcher: seed orders: %w", err)
	}
	reqs, err := w.backend.ServiceRequests(ctx, 1)
	if err != nil {
		return fmt.Errorf("telegraph: watcher: seed requests: %w", err)
	}
	if len(orders) > 0 {
		w.lastOrder = orders[0].ID
	}
	if len(reqs) > 0 {
		w.lastRequest = reqs[0].ID
	}
	w.seeded = true
	return nil
}

// Run seeds the baseline, then polls on the configured interval and sends
// detected events to the returned channel. The channel is closed when ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) <-chan DetectedEvent {
	ch := make(chan DetectedEvent, 64)
	go func() {
		defer close(ch)
		if _, err := w.Poll(ctx); err != nil {
			w.logger.Warn("watcher baseline failed", zap.Error(err))
		}

		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				events, err := w.Poll(ctx)
				if err != nil {
					w.logger.Warn("watcher poll failed", zap.Error(err))
					continue
				}
				for _, e := range events {
					select {
					case ch <- e:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch
}
