package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"hostelnotify/internal/devicetoken"
	"hostelnotify/internal/notification"
	"hostelnotify/internal/push"
)

type TokenRepository interface {
	Upsert(ctx context.Context, rec *devicetoken.Record) error
	Tokens(ctx context.Context, scope notification.RecipientScope) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

type PushSender interface {
	Send(ctx context.Context, tokens []string, req *notification.Request) (*push.Result, error)
}

type Relay interface {
	Relay(ctx context.Context, req *notification.Request) error
}

type Handler struct {
	tokens TokenRepository
	sender PushSender
	// relay is optional.
	relay Relay
}

func New(tokens TokenRepository, sender PushSender, relay Relay) *Handler {
	return &Handler{tokens: tokens, sender: sender, relay: relay}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
