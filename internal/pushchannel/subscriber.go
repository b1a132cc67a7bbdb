package pushchannel

import (
	"context"
	"fmt"
	"log/slog"

	"hostelnotify/internal/notification"
)

// Subscriber receives payloads for a set of recipient scopes and hands them
// to the listener through Pushes.
type Subscriber struct {
	conn     Conn
	subjects []string
	logger   *slog.Logger
	pushes   chan []byte
}

func NewSubscriber(conn Conn, prefix string, scopes []notification.RecipientScope, logger *slog.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}

	subjects := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		subject, err := Subject(prefix, scope)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	return &Subscriber{
		conn:     conn,
		subjects: subjects,
		logger:   logger,
		pushes:   make(chan []byte, 32),
	}, nil
}

func (s *Subscriber) Subjects() []string {
	return s.subjects
}

// Pushes is never closed; consumers stop on their own context.
func (s *Subscriber) Pushes() <-chan []byte {
	return s.pushes
}

// Run subscribes to every subject and blocks until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	unsubscribes := make([]func() error, 0, len(s.subjects))
	defer func() {
		for _, unsubscribe := range unsubscribes {
			if err := unsubscribe(); err != nil {
				s.logger.Warn("failed to unsubscribe", "error", err)
			}
		}
	}()

	for _, subject := range s.subjects {
		unsubscribe, err := s.conn.Subscribe(subject, func(data []byte) {
			payload := make([]byte, len(data))
			copy(payload, data)
			select {
			case s.pushes <- payload:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		unsubscribes = append(unsubscribes, unsubscribe)
	}

	s.logger.Info("Starting push subscriber", "subjects", s.subjects)
	<-ctx.Done()
	s.logger.Info("Push subscriber stopped")
	return nil
}
