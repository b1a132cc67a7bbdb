package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hostelnotify/internal/appstate"
	"hostelnotify/internal/host"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/notification"
)

var ErrDeliveryFailed = errors.New("notification delivery failed")

const defaultLocalDelay = 100 * time.Millisecond

// Relay hands a built request to the push channel so that other devices in
// its recipient scope receive it.
type Relay interface {
	Relay(ctx context.Context, req *notification.Request) error
}

type Config struct {
	State     *appstate.State
	Scheduler host.LocalScheduler
	Notifier  host.Notifier
	Presence  host.Presence
	// Relay is optional.
	Relay      Relay
	LocalDelay time.Duration
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Facade turns domain actions into notifications. Delivery happens in the
// background; the only error a caller sees is an invalid event.
type Facade struct {
	state      *appstate.State
	scheduler  host.LocalScheduler
	notifier   host.Notifier
	presence   host.Presence
	relay      Relay
	localDelay time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics

	wg sync.WaitGroup
}

func New(cfg Config) *Facade {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	delay := cfg.LocalDelay
	if delay <= 0 {
		delay = defaultLocalDelay
	}
	return &Facade{
		state:      cfg.State,
		scheduler:  cfg.Scheduler,
		notifier:   cfg.Notifier,
		presence:   cfg.Presence,
		relay:      cfg.Relay,
		localDelay: delay,
		logger:     logger.With("component", "dispatch"),
		metrics:    m,
	}
}

// Wait blocks until all in-flight deliveries have finished.
func (f *Facade) Wait() {
	f.wg.Wait()
}

// Dispatch builds the request for e and delivers it in the background.
func (f *Facade) Dispatch(ctx context.Context, e notification.Event) (*notification.Request, error) {
	if err := notification.ValidateScope(e.Scope); err != nil {
		f.logger.Warn("notification not dispatched", "type", e.Type, "error", err)
		return nil, fmt.Errorf("%w: %v", notification.ErrInvalidEvent, err)
	}

	req, err := notification.Build(e)
	if err != nil {
		f.logger.Warn("notification not dispatched", "type", e.Type, "error", err)
		return nil, err
	}

	f.metrics.Dispatched.WithLabelValues(string(e.Type), f.state.Capability().String()).Inc()

	deliveryCtx := context.WithoutCancel(ctx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				f.metrics.DeliveryFailures.WithLabelValues("panic").Inc()
				f.logger.Error("notification delivery panicked", "type", req.Data.Type, "panic", r)
			}
		}()
		f.deliver(deliveryCtx, req)
	}()

	return req, nil
}

func (f *Facade) deliver(ctx context.Context, req *notification.Request) {
	f.deliverLocal(ctx, req)

	if f.relay == nil {
		return
	}
	if !f.presence.Online() {
		f.logger.Info("offline, push relay skipped", "type", req.Data.Type)
		return
	}
	if err := f.relay.Relay(ctx, req); err != nil {
		f.fail("relay", req, err)
	}
}

func (f *Facade) deliverLocal(ctx context.Context, req *notification.Request) {
	if !f.state.PermissionGranted() {
		f.logger.Debug("notification permission not granted, local display skipped", "type", req.Data.Type)
		return
	}

	switch f.state.Capability() {
	case host.Native:
		if err := f.scheduler.Schedule(ctx, req, time.Now().Add(f.localDelay)); err != nil {
			f.fail("local", req, err)
		}
	case host.Browser:
		if !f.presence.Focused() {
			// the background listener shows the server-pushed copy
			f.logger.Debug("application not focused, deferring to push listener", "type", req.Data.Type)
			return
		}
		if err := f.notifier.ShowNotification(ctx, uuid.New().String(), req); err != nil {
			f.fail("browser", req, err)
		}
	}
}

func (f *Facade) fail(path string, req *notification.Request, err error) {
	f.metrics.DeliveryFailures.WithLabelValues(path).Inc()
	f.logger.Error("notification delivery failed",
		"path", path,
		"type", req.Data.Type,
		"error", fmt.Errorf("%w: %v", ErrDeliveryFailed, err))
}
