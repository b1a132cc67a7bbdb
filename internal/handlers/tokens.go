package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hostelnotify/internal/auth"
	"hostelnotify/internal/devicetoken"
)

type RegisterTokenRequest struct {
	Token          string `json:"token" validate:"required,max=4096"`
	UserID         string `json:"userId" validate:"required"`
	UserRole       string `json:"userRole" validate:"required"`
	HostelID       string `json:"hostelId"`
	InstallationID string `json:"installationId" validate:"omitempty,uuid"`
}

// RegisterToken upserts the caller's delivery token. Installations that do
// not send an id are keyed by a name-based UUID of the token.
func (h *Handler) RegisterToken(c echo.Context) error {
	claims, _ := auth.ClaimsFrom(c)

	var req RegisterTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := auth.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if claims == nil || claims.UserID != req.UserID {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Token does not belong to caller"})
	}

	installationID := req.InstallationID
	if installationID == "" {
		installationID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(req.Token)).String()
	}

	rec := &devicetoken.Record{
		InstallationID: installationID,
		Token:          req.Token,
		UserID:         req.UserID,
		UserRole:       req.UserRole,
		HostelID:       req.HostelID,
	}
	if err := h.tokens.Upsert(c.Request().Context(), rec); err != nil {
		slog.Error("Failed to store device token", "user_id", req.UserID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store device token"})
	}

	slog.Info("Device token registered", "user_id", req.UserID, "installation_id", installationID)
	return c.JSON(http.StatusOK, map[string]string{"installationId": installationID})
}
