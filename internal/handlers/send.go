package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"hostelnotify/internal/auth"
	"hostelnotify/internal/catalog"
	"hostelnotify/internal/notification"
)

type SendRequest struct {
	Type     string `json:"type" validate:"required,eventtype"`
	Priority string `json:"priority" validate:"omitempty,priority"`
	EntityID string `json:"entityId" validate:"max=128"`
	TenantID string `json:"tenantId"`
	HostelID string `json:"hostelId"`
	Role     string `json:"role"`
	Title    string `json:"title" validate:"required,max=256"`
	Body     string `json:"body" validate:"required,max=4096"`
}

type SendResponse struct {
	Sent         int  `json:"sent"`
	Failed       int  `json:"failed"`
	Unregistered int  `json:"unregistered"`
	Relayed      bool `json:"relayed"`
}

// Send fans a notification out to every device registered in its recipient
// scope and relays it to listening agents.
func (h *Handler) Send(c echo.Context) error {
	ctx := c.Request().Context()

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := auth.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	eventType := catalog.ParseEventType(req.Type)
	priority := catalog.DefaultPriority(eventType)
	if req.Priority != "" {
		priority = catalog.Priority(req.Priority)
	}

	scope := notification.RecipientScope{TenantID: req.TenantID, HostelID: req.HostelID, Role: req.Role}
	if err := notification.ValidateScope(scope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": notification.ErrInvalidScope.Error()})
	}

	built, err := notification.Build(notification.Event{
		Type:     eventType,
		Priority: priority,
		EntityID: req.EntityID,
		Scope:    scope,
		Title:    req.Title,
		Body:     req.Body,
	})
	if errors.Is(err, notification.ErrInvalidEvent) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build notification"})
	}

	tokens, err := h.tokens.Tokens(ctx, scope)
	if err != nil {
		slog.Error("Failed to load device tokens", "scope", scope.Key(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load device tokens"})
	}

	resp := SendResponse{}
	if len(tokens) > 0 {
		result, err := h.sender.Send(ctx, tokens, built)
		if err != nil {
			slog.Error("Failed to send push notification", "scope", scope.Key(), "error", err)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to send push notification"})
		}
		resp.Sent = result.Sent
		resp.Failed = result.Failed
		resp.Unregistered = len(result.Unregistered)

		if err := h.tokens.DeleteTokens(ctx, result.Unregistered); err != nil {
			slog.Warn("Failed to delete unregistered tokens", "count", len(result.Unregistered), "error", err)
		}
	}

	if h.relay != nil {
		if err := h.relay.Relay(ctx, built); err != nil {
			slog.Warn("Failed to relay notification", "scope", scope.Key(), "error", err)
		} else {
			resp.Relayed = true
		}
	}

	slog.Info("Notification sent",
		"type", eventType,
		"scope", scope.Key(),
		"sent", resp.Sent,
		"failed", resp.Failed)
	return c.JSON(http.StatusOK, resp)
}
