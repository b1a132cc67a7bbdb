package host

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hostelnotify/internal/notification"
)

var ErrUnknownClient = errors.New("unknown window client")

// Console is a headless host. Notifications are written to the logger,
// windows are tracked in memory and interactions are read as text commands.
type Console struct {
	logger *slog.Logger

	mu         sync.Mutex
	permission Permission
	token      string
	focused    bool
	online     bool
	shown      map[string]*notification.Request
	clients    []Client

	interactions chan Interaction
	refreshes    chan string
}

// CommandFunc handles a console command. It reports whether the command was
// recognised.
type CommandFunc func(ctx context.Context, fields []string) bool

type ConsoleConfig struct {
	Permission Permission
	Token      string
	Focused    bool
}

func NewConsole(cfg ConsoleConfig, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Permission == PermissionPrompt {
		cfg.Permission = PermissionGranted
	}
	return &Console{
		logger:       logger,
		permission:   cfg.Permission,
		token:        cfg.Token,
		focused:      cfg.Focused,
		online:       true,
		shown:        make(map[string]*notification.Request),
		interactions: make(chan Interaction, 16),
		refreshes:    make(chan string, 4),
	}
}

func (c *Console) RequestPermission(ctx context.Context) (Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission, nil
}

// Token returns the configured token, minting one on first use.
func (c *Console) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		c.token = uuid.New().String()
	}
	return c.token, nil
}

func (c *Console) Schedule(ctx context.Context, req *notification.Request, at time.Time) error {
	id := uuid.New().String()
	wait := time.Until(at)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.ShowNotification(ctx, id, req)
}

func (c *Console) ShowNotification(ctx context.Context, id string, req *notification.Request) error {
	c.mu.Lock()
	for shownID, shown := range c.shown {
		if req.Tag != "" && shown.Tag == req.Tag {
			delete(c.shown, shownID)
		}
	}
	c.shown[id] = req
	c.mu.Unlock()

	c.logger.Info("notification shown",
		"id", id,
		"title", req.Title,
		"body", req.Body,
		"tag", req.Tag,
		"require_interaction", req.RequireInteraction,
		"actions", len(req.Actions))
	return nil
}

func (c *Console) CloseNotification(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.shown, id)
	c.mu.Unlock()
	return nil
}

// Shown returns the currently displayed notifications keyed by id.
func (c *Console) Shown() map[string]*notification.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*notification.Request, len(c.shown))
	for id, req := range c.shown {
		out[id] = req
	}
	return out
}

func (c *Console) Focused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

func (c *Console) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *Console) SetFocused(focused bool) {
	c.mu.Lock()
	c.focused = focused
	c.mu.Unlock()
}

func (c *Console) SetOnline(online bool) {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()
}

func (c *Console) Clients(ctx context.Context) ([]Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Client, len(c.clients))
	copy(out, c.clients)
	return out, nil
}

func (c *Console) Focus(ctx context.Context, clientID, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := false
	for i := range c.clients {
		c.clients[i].Focused = c.clients[i].ID == clientID
		if c.clients[i].ID == clientID {
			c.clients[i].URL = url
			found = true
		}
	}
	if !found {
		return ErrUnknownClient
	}
	c.focused = true
	c.logger.Info("window focused", "client_id", clientID, "url", url)
	return nil
}

func (c *Console) Open(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.clients {
		c.clients[i].Focused = false
	}
	client := Client{ID: uuid.New().String(), URL: url, Focused: true}
	c.clients = append(c.clients, client)
	c.focused = true
	c.logger.Info("window opened", "client_id", client.ID, "url", url)
	return nil
}

func (c *Console) Interactions() <-chan Interaction {
	return c.interactions
}

// Click queues an interaction as if the user clicked notification id.
func (c *Console) Click(id, action string) {
	c.interactions <- Interaction{NotificationID: id, Action: action}
}

// TokenRefreshes delivers tokens issued by the "token" command.
func (c *Console) TokenRefreshes() <-chan string {
	return c.refreshes
}

// RefreshToken replaces the delivery token as if the platform rotated it.
func (c *Console) RefreshToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.refreshes <- token
}

// ReadCommands reads line commands until r is exhausted or ctx is done.
// Commands not handled by extra are one of:
//
//	click <id> [action]
//	focus on|off
//	online on|off
//	token <value>
func (c *Console) ReadCommands(ctx context.Context, r io.Reader, extra ...CommandFunc) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if !c.exec(ctx, fields, extra) {
			c.logger.Warn("unknown console command", "command", fields[0])
		}
	}
	return scanner.Err()
}

func (c *Console) exec(ctx context.Context, fields []string, extra []CommandFunc) bool {
	for _, fn := range extra {
		if fn(ctx, fields) {
			return true
		}
	}

	switch fields[0] {
	case "click":
		action := ""
		if len(fields) > 2 {
			action = fields[2]
		}
		c.Click(fields[1], action)
	case "focus":
		c.SetFocused(fields[1] == "on")
	case "online":
		c.SetOnline(fields[1] == "on")
	case "token":
		c.RefreshToken(fields[1])
	default:
		return false
	}
	return true
}
