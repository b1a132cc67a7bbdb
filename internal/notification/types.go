package notification

import (
	"hostelnotify/internal/catalog"
)

// RecipientScope selects the fan-out target. Exactly one field is set.
type RecipientScope struct {
	TenantID string `json:"tenantId,omitempty"`
	HostelID string `json:"hostelId,omitempty"`
	Role     string `json:"role,omitempty"`
}

func TenantScope(tenantID string) RecipientScope { return RecipientScope{TenantID: tenantID} }
func HostelScope(hostelID string) RecipientScope { return RecipientScope{HostelID: hostelID} }
func RoleScope(role string) RecipientScope       { return RecipientScope{Role: role} }

// Key returns a stable "kind:id" form, used for push channel subjects.
func (s RecipientScope) Key() string {
	switch {
	case s.TenantID != "":
		return "tenant:" + s.TenantID
	case s.HostelID != "":
		return "hostel:" + s.HostelID
	case s.Role != "":
		return "role:" + s.Role
	default:
		return ""
	}
}

// Event is constructed per dispatch call by the producing feature.
type Event struct {
	Type     catalog.EventType `json:"type"`
	Priority catalog.Priority  `json:"priority"`
	EntityID string            `json:"entityId,omitempty"`
	Scope    RecipientScope    `json:"recipientScope"`
	// SourceHostelID names the hostel an event concerns when the recipient
	// scope does not, e.g. a payment addressed to one tenant.
	SourceHostelID string `json:"sourceHostelId,omitempty"`
	Title          string `json:"title" validate:"required"`
	Body           string `json:"body" validate:"required"`
}

// Data travels with a shown notification and comes back on interaction.
type Data struct {
	Type     catalog.EventType `json:"type"`
	EntityID string            `json:"entityId,omitempty"`
	Scope    RecipientScope    `json:"recipientScope"`
	Action   string            `json:"action,omitempty"`

	SourceHostelID string `json:"sourceHostelId,omitempty"`
}

// Map flattens d into string pairs for transports that only carry strings.
func (d Data) Map() map[string]string {
	m := map[string]string{"type": string(d.Type)}
	if d.EntityID != "" {
		m["entityId"] = d.EntityID
	}
	if d.Scope.TenantID != "" {
		m["tenantId"] = d.Scope.TenantID
	}
	if d.Scope.HostelID != "" {
		m["hostelId"] = d.Scope.HostelID
	}
	if d.Scope.Role != "" {
		m["role"] = d.Scope.Role
	}
	if d.Action != "" {
		m["action"] = d.Action
	}
	if d.SourceHostelID != "" {
		m["sourceHostelId"] = d.SourceHostelID
	}
	return m
}

// Request is the platform-facing notification derived from an Event.
// Treat it as read-only once built.
type Request struct {
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Tag                string           `json:"tag,omitempty"`
	Priority           catalog.Priority `json:"priority"`
	RequireInteraction bool             `json:"requireInteraction"`
	Vibrate            []int            `json:"vibrate"`
	Actions            []catalog.Action `json:"actions"`
	Data               Data             `json:"data"`
}
