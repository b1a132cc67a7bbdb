package notification

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"hostelnotify/internal/catalog"
)

var (
	ErrInvalidEvent     = errors.New("invalid notification event")
	ErrMalformedPayload = errors.New("malformed push payload")
	ErrInvalidScope     = errors.New("recipient scope must name exactly one of tenantId, hostelId or role")
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(validateScope, RecipientScope{})
}

func validateScope(sl validator.StructLevel) {
	scope := sl.Current().Interface().(RecipientScope)

	set := 0
	for _, v := range []string{scope.TenantID, scope.HostelID, scope.Role} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		sl.ReportError(scope.TenantID, "TenantID", "tenantId", "exactly_one_scope", "")
	}
}

// ValidateScope checks that exactly one recipient field is populated.
func ValidateScope(scope RecipientScope) error {
	if err := validate.Struct(scope); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	return nil
}

// Build derives the platform notification request for e. It has no side
// effects and fails only when the title or body is missing.
func Build(e Event) (*Request, error) {
	if err := validate.StructPartial(e, "Title", "Body"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	return &Request{
		Title:              e.Title,
		Body:               e.Body,
		Tag:                string(e.Type),
		Priority:           e.Priority,
		RequireInteraction: e.Priority == catalog.PriorityCritical,
		Vibrate:            catalog.VibrationFor(e.Priority),
		Actions:            catalog.ActionsFor(e.Type),
		Data: Data{
			Type:     e.Type,
			EntityID: e.EntityID,
			Scope:    e.Scope,

			SourceHostelID: e.SourceHostelID,
		},
	}, nil
}
