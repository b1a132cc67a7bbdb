// Package host describes the platform capabilities the notification core
// depends on: permission, push token, local scheduling, notification display
// and window navigation.
package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hostelnotify/internal/notification"
)

// Capability selects the delivery path. It is resolved once at startup.
type Capability int

const (
	Browser Capability = iota
	Native
)

func (c Capability) String() string {
	if c == Native {
		return "native"
	}
	return "browser"
}

func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native":
		return Native, nil
	case "browser", "web", "":
		return Browser, nil
	default:
		return Browser, fmt.Errorf("unknown host capability %q", s)
	}
}

type Permission string

const (
	PermissionPrompt  Permission = ""
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type PermissionRequester interface {
	RequestPermission(ctx context.Context) (Permission, error)
}

// TokenSource issues the push delivery token addressing this installation.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// LocalScheduler shows a notification from the same device and session.
type LocalScheduler interface {
	Schedule(ctx context.Context, req *notification.Request, at time.Time) error
}

type Notifier interface {
	ShowNotification(ctx context.Context, id string, req *notification.Request) error
	CloseNotification(ctx context.Context, id string) error
}

type Presence interface {
	Focused() bool
	Online() bool
}

// Client is an open application window.
type Client struct {
	ID      string
	URL     string
	Focused bool
}

type WindowManager interface {
	Clients(ctx context.Context) ([]Client, error)
	Focus(ctx context.Context, clientID, url string) error
	Open(ctx context.Context, url string) error
}

// Interaction is a user click on a shown notification. Action is empty when
// the notification body itself was clicked.
type Interaction struct {
	NotificationID string
	Action         string
}
