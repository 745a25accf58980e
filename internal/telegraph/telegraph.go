package telegraph

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Backend is everything the daemon reads and updates.
type Backend interface {
	WatchBackend
	StaffBackend
	Summarizer
}

// Daemon is the telegraph process. It connects to a chat platform via an
// Adapter, answers guests through the concierge, and posts new orders,
// service requests and the daily digest to the staff channel.
type Daemon struct {
	adapter      Adapter
	chatter      Chatter
	backend      Backend
	guestChannel string
	staffChannel string
	pollInterval time.Duration
	digest       cron.Schedule
	hotelName    string
	currency     string
	logger       *zap.Logger
	out          io.Writer
	now          func() time.Time
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	Adapter      Adapter
	Chatter      Chatter
	Backend      Backend
	GuestChannel string
	StaffChannel string
	PollInterval time.Duration
	DigestCron   string // 5-field cron; empty disables the digest
	HotelName    string
	Currency     string
	Logger       *zap.Logger
	Out          io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	if opts.Chatter == nil {
		return nil, fmt.Errorf("telegraph: chatter is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("telegraph: backend is required")
	}
	var digest cron.Schedule
	if opts.DigestCron != "" {
		sched, err := parseSchedule(opts.DigestCron)
		if err != nil {
			return nil, err
		}
		digest = sched
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := opts.Currency
	if currency == "" {
		currency = "₹"
	}
	staff := opts.StaffChannel
	if staff == "" {
		staff = opts.GuestChannel
	}
	return &Daemon{
		adapter:      opts.Adapter,
		chatter:      opts.Chatter,
		backend:      opts.Backend,
		guestChannel: opts.GuestChannel,
		staffChannel: staff,
		pollInterval: opts.PollInterval,
		digest:       digest,
		hotelName:    opts.HotelName,
		currency:     currency,
		logger:       logger,
		out:          out,
		now:          time.Now,
	}, nil
}

// Run connects the adapter, starts the watcher and digest scheduler, and
// answers inbound messages until ctx is cancelled. On shutdown it waits for
// in-flight replies and closes the adapter.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Telegraph connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("telegraph: connect: %w", err)
	}

	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	commands, err := NewCommandHandler(CommandHandlerOpts{Backend: d.backend, Currency: d.currency})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: build command handler: %w", err)
	}
	bridge, err := NewBridge(BridgeOpts{
		Chatter:      d.chatter,
		Commands:     commands,
		Adapter:      d.adapter,
		GuestChannel: d.guestChannel,
		StaffChannel: d.staffChannel,
		BotUserID:    botUserID,
		Logger:       d.logger,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: build bridge: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: listen: %w", err)
	}

	watcher, err := NewWatcher(WatcherOpts{
		Backend:      d.backend,
		PollInterval: d.pollInterval,
		Logger:       d.logger,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: build watcher: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.dispatchEvents(runCtx, watcher.Run(runCtx))
	}()
	go func() {
		defer wg.Done()
		d.runDigestScheduler(runCtx)
	}()

	fmt.Fprintf(d.out, "Telegraph online\n")
	d.sendStaff(ctx, OutboundMessage{Text: "🛎️ Concierge online"})

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Telegraph shutting down...\n")
			wg.Wait()
			d.sendStaff(context.Background(), OutboundMessage{Text: "Concierge going offline"})
			if err := d.adapter.Close(); err != nil {
				d.logger.Warn("close adapter", zap.Error(err))
			}
			fmt.Fprintf(d.out, "Telegraph stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Telegraph inbound channel closed\n")
				cancel()
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				bridge.Handle(runCtx, msg)
			}()
		}
	}
}

// dispatchEvents formats watcher events and posts them to the staff channel.
func (d *Daemon) dispatchEvents(ctx context.Context, events <-chan DetectedEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			d.handleDetectedEvent(ctx, event)
		}
	}
}

func (d *Daemon) handleDetectedEvent(ctx context.Context, event DetectedEvent) {
	var alert Alert
	switch {
	case event.Type == EventNewOrder && event.Order != nil:
		alert = FormatOrder(*event.Order, d.currency)
	case event.Type == EventNewRequest && event.Request != nil:
		alert = FormatRequest(*event.Request)
	default:
		return
	}
	d.sendStaff(ctx, OutboundMessage{Alerts: []Alert{alert}})
}

// runDigestScheduler posts the digest each time the cron schedule fires.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	if d.digest == nil {
		return
	}
	timer := time.NewTimer(nextCronDuration(d.digest, d.now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.fireDigest(ctx)
			timer.Reset(nextCronDuration(d.digest, d.now()))
		}
	}
}

// fireDigest builds and posts the daily digest. Quiet days are skipped.
func (d *Daemon) fireDigest(ctx context.Context) {
	sum, err := BuildDailyDigest(ctx, d.backend, d.now())
	if err != nil {
		d.logger.Error("daily digest failed", zap.Error(err))
		return
	}
	if sum == nil {
		return
	}
	d.sendStaff(ctx, OutboundMessage{Alerts: []Alert{FormatDigest(sum, d.hotelName, d.currency)}})
}

func (d *Daemon) sendStaff(ctx context.Context, msg OutboundMessage) {
	msg.ChannelID = d.staffChannel
	if err := d.adapter.Send(ctx, msg); err != nil {
		d.logger.Warn("send to staff channel failed", zap.Error(err))
	}
}
