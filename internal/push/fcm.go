// Package push fans built notification requests out to device tokens
// through Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"firebase.google.com/go/v4/messaging"

	"hostelnotify/internal/catalog"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/notification"
)

// FCM accepts at most this many tokens per multicast call.
const maxTokensPerBatch = 500

type MulticastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	// Unregistered tokens should be removed from storage.
	Unregistered []string `json:"-"`
}

type Sender struct {
	client         MulticastClient
	origin         string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	isUnregistered func(error) bool
}

func NewSender(client MulticastClient, origin string, logger *slog.Logger, m *metrics.Metrics) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Sender{
		client:         client,
		origin:         strings.TrimRight(origin, "/"),
		logger:         logger,
		metrics:        m,
		isUnregistered: messaging.IsUnregistered,
	}
}

// Send delivers req to every token. Per-token failures are counted in the
// result; only a failed batch call returns an error.
func (s *Sender) Send(ctx context.Context, tokens []string, req *notification.Request) (*Result, error) {
	result := &Result{}

	for start := 0; start < len(tokens); start += maxTokensPerBatch {
		end := min(start+maxTokensPerBatch, len(tokens))
		batch := tokens[start:end]

		resp, err := s.client.SendEachForMulticast(ctx, s.message(batch, req))
		if err != nil {
			s.metrics.PushesSent.WithLabelValues("error").Add(float64(len(batch)))
			return result, fmt.Errorf("failed to send push batch: %w", err)
		}

		for i, r := range resp.Responses {
			if r.Success {
				result.Sent++
				s.metrics.PushesSent.WithLabelValues("sent").Inc()
				continue
			}
			result.Failed++
			if s.isUnregistered(r.Error) {
				result.Unregistered = append(result.Unregistered, batch[i])
				s.metrics.PushesSent.WithLabelValues("unregistered").Inc()
				continue
			}
			s.metrics.PushesSent.WithLabelValues("error").Inc()
			s.logger.Warn("push to token failed", "type", req.Data.Type, "error", r.Error)
		}
	}

	s.logger.Info("push fan-out finished",
		"type", req.Data.Type,
		"sent", result.Sent,
		"failed", result.Failed,
		"unregistered", len(result.Unregistered))
	return result, nil
}

func (s *Sender) message(tokens []string, req *notification.Request) *messaging.MulticastMessage {
	actions := make([]*messaging.WebpushNotificationAction, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, &messaging.WebpushNotificationAction{Action: a.ID, Title: a.Label})
	}

	data := req.Data.Map()
	data["priority"] = string(req.Priority)

	androidPriority := "normal"
	if req.Priority == catalog.PriorityCritical || req.Priority == catalog.PriorityHigh {
		androidPriority = "high"
	}

	vibrate := make([]int64, len(req.Vibrate))
	for i, v := range req.Vibrate {
		vibrate[i] = int64(v)
	}

	webpush := &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title:              req.Title,
			Body:               req.Body,
			Tag:                req.Tag,
			RequireInteraction: req.RequireInteraction,
			Vibrate:            req.Vibrate,
			Actions:            actions,
		},
	}
	// FCM rejects click links that are not https.
	if strings.HasPrefix(s.origin, "https://") {
		webpush.FCMOptions = &messaging.WebpushFCMOptions{
			Link: s.origin + catalog.RouteFor(req.Data.Type, req.Data.EntityID),
		}
	}

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
		Notification: &messaging.Notification{
			Title: req.Title,
			Body:  req.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
			Notification: &messaging.AndroidNotification{
				Tag:                 req.Tag,
				VibrateTimingMillis: vibrate,
			},
		},
		Webpush: webpush,
	}
}
