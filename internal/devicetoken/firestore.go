// Package devicetoken stores push delivery tokens registered by
// installations, one document per installation.
package devicetoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"hostelnotify/internal/notification"
)

const collection = "device_tokens"

var ErrMissingInstallation = errors.New("installation id is required")

type Record struct {
	InstallationID string    `firestore:"installation_id" json:"installationId"`
	Token          string    `firestore:"token" json:"token"`
	UserID         string    `firestore:"user_id" json:"userId"`
	UserRole       string    `firestore:"user_role" json:"userRole"`
	HostelID       string    `firestore:"hostel_id" json:"hostelId"`
	UpdatedAt      time.Time `firestore:"updated_at" json:"updatedAt"`
}

// fields is the document body for Upsert. MergeAll only accepts map data.
func (rec *Record) fields() map[string]interface{} {
	return map[string]interface{}{
		"installation_id": rec.InstallationID,
		"token":           rec.Token,
		"user_id":         rec.UserID,
		"user_role":       rec.UserRole,
		"hostel_id":       rec.HostelID,
		"updated_at":      rec.UpdatedAt,
	}
}

type FirestoreRepository struct {
	db *firestore.Client
}

func NewFirestoreRepository(db *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{db: db}
}

// Upsert writes rec under its installation id. Registering the same
// installation again replaces its token.
func (r *FirestoreRepository) Upsert(ctx context.Context, rec *Record) error {
	if rec.InstallationID == "" {
		return ErrMissingInstallation
	}
	rec.UpdatedAt = time.Now().UTC()

	_, err := r.db.Collection(collection).Doc(rec.InstallationID).Set(ctx, rec.fields(), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to upsert device token: %w", err)
	}
	return nil
}

// Tokens returns the distinct tokens of every installation in scope.
func (r *FirestoreRepository) Tokens(ctx context.Context, scope notification.RecipientScope) ([]string, error) {
	if err := notification.ValidateScope(scope); err != nil {
		return nil, err
	}

	query := r.db.Collection(collection).Query
	switch {
	case scope.TenantID != "":
		query = query.Where("user_id", "==", scope.TenantID)
	case scope.HostelID != "":
		query = query.Where("hostel_id", "==", scope.HostelID)
	default:
		query = query.Where("user_role", "==", scope.Role)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]struct{})
	var tokens []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list device tokens: %w", err)
		}

		var rec Record
		if err := doc.DataTo(&rec); err != nil {
			slog.Warn("failed to parse device token", "doc_id", doc.Ref.ID, "error", err)
			continue
		}
		if rec.Token == "" {
			continue
		}
		if _, ok := seen[rec.Token]; ok {
			continue
		}
		seen[rec.Token] = struct{}{}
		tokens = append(tokens, rec.Token)
	}

	return tokens, nil
}

// DeleteTokens removes every installation holding one of tokens.
func (r *FirestoreRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	bulkWriter := r.db.BulkWriter(ctx)
	defer bulkWriter.End()

	// "in" filters accept at most 30 values.
	for start := 0; start < len(tokens); start += 30 {
		end := min(start+30, len(tokens))

		iter := r.db.Collection(collection).Where("token", "in", tokens[start:end]).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return fmt.Errorf("failed to find stale device tokens: %w", err)
			}
			if _, err := bulkWriter.Delete(doc.Ref); err != nil {
				iter.Stop()
				return fmt.Errorf("failed to add delete to bulk writer: %w", err)
			}
		}
		iter.Stop()
	}

	bulkWriter.Flush()
	return nil
}
