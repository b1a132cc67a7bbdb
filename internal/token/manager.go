package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"hostelnotify/internal/appstate"
	"hostelnotify/internal/host"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/store"
)

var (
	ErrPermissionDenied   = errors.New("notification permission denied")
	ErrRegistrationFailed = errors.New("delivery token registration failed")
)

// Identity is the signed-in user the token is registered for.
type Identity struct {
	UserID   string
	Role     string
	HostelID string
}

type LocalStore interface {
	LoadToken(ctx context.Context) (*store.TokenRecord, error)
	SaveToken(ctx context.Context, token string) error
	MarkRegistered(ctx context.Context, token string) error
}

type ManagerConfig struct {
	State          *appstate.State
	Permissions    host.PermissionRequester
	Source         host.TokenSource
	Store          LocalStore
	Registrar      Registrar
	Identity       Identity
	InstallationID string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Manager obtains the delivery token, keeps it in the process state and
// registers every new value with the backend. Registrations run one at a
// time in submission order. A failed registration is not retried until the
// next Initialize or refresh.
type Manager struct {
	state          *appstate.State
	permissions    host.PermissionRequester
	source         host.TokenSource
	store          LocalStore
	registrar      Registrar
	identity       Identity
	installationID string
	logger         *slog.Logger
	metrics        *metrics.Metrics

	jobs   chan string
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	return &Manager{
		state:          cfg.State,
		permissions:    cfg.Permissions,
		source:         cfg.Source,
		store:          cfg.Store,
		registrar:      cfg.Registrar,
		identity:       cfg.Identity,
		installationID: cfg.InstallationID,
		logger:         logger.With("component", "token_manager"),
		metrics:        m,
		jobs:           make(chan string, 16),
	}
}

// Start runs the registration worker until Close.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for token := range m.jobs {
			// errors are logged by RegisterWithBackend
			_ = m.RegisterWithBackend(ctx, token)
		}
	}()
}

// Close stops accepting refreshes and waits for queued registrations.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.jobs)
	m.mu.Unlock()
	m.wg.Wait()
}

// Initialize requests notification permission and, when granted, obtains
// and persists the delivery token. It reports false without an error when
// permission is denied or no token could be obtained.
func (m *Manager) Initialize(ctx context.Context) (string, bool) {
	permission, err := m.permissions.RequestPermission(ctx)
	if err != nil {
		m.logger.Warn("permission request failed", "error", err)
		permission = host.PermissionDenied
	}
	m.state.SetPermission(permission)

	if permission != host.PermissionGranted {
		m.logger.Info("notifications disabled", "error", ErrPermissionDenied)
		return "", false
	}

	token, err := m.source.Token(ctx)
	if err != nil || token == "" {
		m.logger.Error("failed to obtain delivery token", "error", err)
		return "", false
	}

	if m.store != nil {
		if rec, err := m.store.LoadToken(ctx); err == nil && rec.Token != token {
			m.logger.Info("delivery token changed since last start")
		}
	}

	m.hold(ctx, token)
	return token, true
}

// OnTokenRefresh replaces the held token and schedules its registration.
func (m *Manager) OnTokenRefresh(ctx context.Context, newToken string) {
	if newToken == "" {
		return
	}
	m.hold(ctx, newToken)
}

// Watch feeds refresh events from the host until refreshes closes or ctx
// is done.
func (m *Manager) Watch(ctx context.Context, refreshes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case token, ok := <-refreshes:
			if !ok {
				return
			}
			m.OnTokenRefresh(ctx, token)
		}
	}
}

func (m *Manager) hold(ctx context.Context, token string) {
	if previous := m.state.SetToken(token); previous != "" && previous != token {
		m.logger.Info("discarding stale delivery token")
	}

	if m.store != nil {
		if err := m.store.SaveToken(ctx, token); err != nil {
			m.logger.Error("failed to persist delivery token", "error", err)
		}
	}

	m.schedule(token)
}

// schedule queues token for registration without blocking. When the queue
// is full the token stays held unregistered until the next refresh.
func (m *Manager) schedule(token string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		m.logger.Warn("token manager closed, registration skipped")
		return
	}
	select {
	case m.jobs <- token:
	default:
		m.logger.Warn("registration queue full, registration skipped")
	}
}

// RegisterWithBackend upserts token for the current identity. On failure the
// token stays held locally with RegisteredWithBackend=false.
func (m *Manager) RegisterWithBackend(ctx context.Context, token string) error {
	reg := Registration{
		Token:          token,
		UserID:         m.identity.UserID,
		UserRole:       m.identity.Role,
		HostelID:       m.identity.HostelID,
		InstallationID: m.installationID,
	}

	if err := m.registrar.Register(ctx, reg); err != nil {
		m.metrics.Registrations.WithLabelValues("failed").Inc()
		m.logger.Error("failed to register delivery token", "user_id", m.identity.UserID, "error", err)
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	if !m.state.MarkRegistered(token) {
		m.metrics.Registrations.WithLabelValues("stale").Inc()
		m.logger.Info("registered token is no longer current", "user_id", m.identity.UserID)
		return nil
	}

	if m.store != nil {
		if err := m.store.MarkRegistered(ctx, token); err != nil {
			m.logger.Warn("failed to persist registration flag", "error", err)
		}
	}

	m.metrics.Registrations.WithLabelValues("ok").Inc()
	m.logger.Info("delivery token registered", "user_id", m.identity.UserID, "hostel_id", m.identity.HostelID)
	return nil
}
