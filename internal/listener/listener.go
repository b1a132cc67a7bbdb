// Package listener runs the background push handler. Each payload becomes a
// notification instance that moves from display to resolution independently
// of the foreground application.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"hostelnotify/internal/catalog"
	"hostelnotify/internal/host"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/notification"
)

var (
	ErrNotInstalled        = errors.New("push listener not installed")
	ErrDisplayFailed       = errors.New("notification display failed")
	ErrNavigationFailed    = errors.New("notification navigation failed")
	ErrUnknownNotification = errors.New("unknown notification instance")
)

type State int

const (
	Idle State = iota
	AwaitingPayload
	Displaying
	Resolved
)

func (s State) String() string {
	switch s {
	case AwaitingPayload:
		return "awaiting_payload"
	case Displaying:
		return "displaying"
	case Resolved:
		return "resolved"
	default:
		return "idle"
	}
}

// Instance is one shown notification. Resolved is terminal.
type Instance struct {
	ID      string
	Request *notification.Request
	State   State
	// Fallback is set when the payload could not be decoded.
	Fallback bool
	Action   string
	// Route is empty when the instance was dismissed.
	Route string

	seq uint64
}

// DefaultMaxPending bounds how many shown instances are tracked at once.
const DefaultMaxPending = 50

type Config struct {
	// Origin is the application's own origin, e.g. https://app.example.com.
	Origin   string
	Notifier host.Notifier
	Windows  host.WindowManager
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// MaxPending defaults to DefaultMaxPending. The oldest instance is
	// closed and forgotten when a new one would exceed it.
	MaxPending int
}

type Listener struct {
	origin   string
	notifier host.Notifier
	windows  host.WindowManager
	logger   *slog.Logger
	metrics  *metrics.Metrics

	maxPending int

	installOnce sync.Once

	mu        sync.Mutex
	state     State
	seq       uint64
	instances map[string]*Instance
}

func New(cfg Config) *Listener {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	maxPending := cfg.MaxPending
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Listener{
		origin:     strings.TrimRight(cfg.Origin, "/"),
		notifier:   cfg.Notifier,
		windows:    cfg.Windows,
		logger:     logger.With("component", "listener"),
		metrics:    m,
		maxPending: maxPending,
		instances:  make(map[string]*Instance),
	}
}

// Install moves the listener from Idle to AwaitingPayload. Later calls are
// no-ops.
func (l *Listener) Install() {
	l.installOnce.Do(func() {
		l.setState(AwaitingPayload)
		l.logger.Info("push listener installed", "origin", l.origin)
	})
}

func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Listener) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Pending returns the number of shown instances awaiting interaction.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.instances)
}

// HandlePush shows the notification carried by raw and returns once the
// host has displayed it. A malformed payload is shown with the fallback
// title and the raw text as its body.
func (l *Listener) HandlePush(ctx context.Context, raw []byte) (*Instance, error) {
	if l.State() == Idle {
		return nil, ErrNotInstalled
	}

	fallback := false
	event, err := notification.DecodePayload(raw)
	if err != nil {
		l.metrics.MalformedPayloads.Inc()
		l.logger.Warn("malformed push payload, showing fallback", "error", err)
		event = notification.FallbackEvent(raw)
		fallback = true
	}

	req, err := notification.Build(event)
	if err != nil {
		l.metrics.MalformedPayloads.Inc()
		l.logger.Warn("push payload missing content, showing fallback", "error", err)
		req, err = notification.Build(notification.FallbackEvent(raw))
		if err != nil {
			return nil, err
		}
		fallback = true
	}

	inst := &Instance{
		ID:       uuid.New().String(),
		Request:  req,
		State:    Displaying,
		Fallback: fallback,
	}

	l.setState(Displaying)
	defer l.setState(AwaitingPayload)

	if err := l.notifier.ShowNotification(ctx, inst.ID, req); err != nil {
		l.metrics.DeliveryFailures.WithLabelValues("listener").Inc()
		l.logger.Error("failed to show push notification", "type", req.Data.Type, "error", err)
		return inst, fmt.Errorf("%w: %v", ErrDisplayFailed, err)
	}

	evicted := l.track(inst)
	for _, id := range evicted {
		if err := l.notifier.CloseNotification(ctx, id); err != nil {
			l.logger.Warn("failed to close evicted notification", "id", id, "error", err)
		}
	}

	l.metrics.Displayed.Inc()
	l.logger.Info("push notification shown", "id", inst.ID, "type", req.Data.Type, "fallback", fallback)
	return inst, nil
}

// track stores inst, dropping instances it replaces by tag. It returns the
// ids evicted to stay within maxPending.
func (l *Listener) track(inst *Instance) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tag := inst.Request.Tag; tag != "" {
		for id, shown := range l.instances {
			if shown.Request.Tag == tag {
				delete(l.instances, id)
			}
		}
	}

	var evicted []string
	for len(l.instances) >= l.maxPending {
		var oldest *Instance
		for _, shown := range l.instances {
			if oldest == nil || shown.seq < oldest.seq {
				oldest = shown
			}
		}
		delete(l.instances, oldest.ID)
		evicted = append(evicted, oldest.ID)
	}

	l.seq++
	inst.seq = l.seq
	l.instances[inst.ID] = inst
	return evicted
}

// HandleInteraction closes the clicked notification and, unless the action
// dismisses it, focuses or opens a window at the notification's route. The
// instance is Resolved when it returns, even if navigation failed.
func (l *Listener) HandleInteraction(ctx context.Context, in host.Interaction) (*Instance, error) {
	l.mu.Lock()
	inst, ok := l.instances[in.NotificationID]
	delete(l.instances, in.NotificationID)
	l.mu.Unlock()

	if err := l.notifier.CloseNotification(ctx, in.NotificationID); err != nil {
		l.logger.Warn("failed to close notification", "id", in.NotificationID, "error", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotification, in.NotificationID)
	}

	inst.Action = in.Action
	inst.State = Resolved

	if catalog.IsDismiss(in.Action) {
		l.metrics.Navigations.WithLabelValues("dismissed").Inc()
		l.logger.Info("notification dismissed", "id", inst.ID)
		return inst, nil
	}

	inst.Route = catalog.RouteFor(inst.Request.Data.Type, inst.Request.Data.EntityID)
	outcome, err := l.navigate(ctx, l.origin+inst.Route)
	if err != nil {
		l.metrics.Navigations.WithLabelValues("failed").Inc()
		l.logger.Error("failed to navigate to notification route", "route", inst.Route, "error", err)
		return inst, fmt.Errorf("%w: %v", ErrNavigationFailed, err)
	}

	l.metrics.Navigations.WithLabelValues(outcome).Inc()
	l.logger.Info("notification opened", "id", inst.ID, "action", in.Action, "route", inst.Route, "outcome", outcome)
	return inst, nil
}

func (l *Listener) navigate(ctx context.Context, url string) (string, error) {
	clients, err := l.windows.Clients(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range clients {
		if strings.HasPrefix(c.URL, l.origin) {
			if err := l.windows.Focus(ctx, c.ID, url); err != nil {
				return "", err
			}
			return "focused", nil
		}
	}
	if err := l.windows.Open(ctx, url); err != nil {
		return "", err
	}
	return "opened", nil
}

// Run installs the listener and handles pushes and interactions until ctx is
// done or both channels are closed. Errors are logged and never stop the loop.
func (l *Listener) Run(ctx context.Context, pushes <-chan []byte, interactions <-chan host.Interaction) error {
	l.Install()

	for pushes != nil || interactions != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-pushes:
			if !ok {
				pushes = nil
				continue
			}
			_, _ = l.HandlePush(ctx, raw)
		case in, ok := <-interactions:
			if !ok {
				interactions = nil
				continue
			}
			if _, err := l.HandleInteraction(ctx, in); errors.Is(err, ErrUnknownNotification) {
				l.logger.Warn("interaction for unknown notification", "id", in.NotificationID)
			}
		}
	}
	return nil
}
