package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const registrationPath = "/api/v1/notifications/tokens"

// Registration is the body sent to the backend token endpoint.
type Registration struct {
	Token          string `json:"token"`
	UserID         string `json:"userId"`
	UserRole       string `json:"userRole"`
	HostelID       string `json:"hostelId"`
	InstallationID string `json:"installationId,omitempty"`
}

type Registrar interface {
	Register(ctx context.Context, reg Registration) error
}

// HTTPRegistrar posts registrations to the backend. No client timeout is
// set; a hung call is bounded only by ctx.
type HTTPRegistrar struct {
	httpClient *http.Client
	endpoint   string
	authToken  string
}

func NewHTTPRegistrar(baseURL, authToken string) *HTTPRegistrar {
	return &HTTPRegistrar{
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(baseURL, "/") + registrationPath,
		authToken:  authToken,
	}
}

func (r *HTTPRegistrar) Register(ctx context.Context, reg Registration) error {
	payloadBytes, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend rejected registration: %s", resp.Status)
	}
	return nil
}
