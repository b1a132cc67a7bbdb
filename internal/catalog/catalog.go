package catalog

import "strings"

type EventType string

const (
	EventComplaint    EventType = "complaint"
	EventPayment      EventType = "payment"
	EventMaintenance  EventType = "maintenance"
	EventVisitor      EventType = "visitor"
	EventAnnouncement EventType = "announcement"
	EventBooking      EventType = "booking"
	EventEmergency    EventType = "emergency"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityDefault  Priority = "default"
)

// Action is a button shown on a notification. ID is echoed back on click.
type Action struct {
	ID    string `json:"action"`
	Label string `json:"title"`
}

const (
	ActionView        = "view"
	ActionPay         = "pay"
	ActionApprove     = "approve"
	ActionDeny        = "deny"
	ActionAcknowledge = "acknowledge"
	ActionDismiss     = "dismiss"
)

var eventTypes = []EventType{
	EventComplaint,
	EventPayment,
	EventMaintenance,
	EventVisitor,
	EventAnnouncement,
	EventBooking,
	EventEmergency,
}

var routes = map[EventType]string{
	EventPayment:      "/payments",
	EventMaintenance:  "/maintenance",
	EventVisitor:      "/visitors",
	EventAnnouncement: "/announcements",
	EventBooking:      "/bookings",
	EventEmergency:    "/emergency",
}

var actions = map[EventType][]Action{
	EventComplaint: {{ID: ActionView, Label: "View"}},
	EventPayment:   {{ID: ActionPay, Label: "Pay Now"}},
	EventVisitor: {
		{ID: ActionApprove, Label: "Approve"},
		{ID: ActionDeny, Label: "Deny"},
	},
	EventEmergency: {{ID: ActionAcknowledge, Label: "Acknowledge"}},
}

var defaultActions = []Action{{ID: ActionView, Label: "View"}}

var vibrations = map[Priority][]int{
	PriorityCritical: {200, 100, 200, 100, 200},
	PriorityHigh:     {200, 100, 200},
	PriorityMedium:   {200},
}

var defaultPriorities = map[EventType]Priority{
	EventEmergency:    PriorityCritical,
	EventVisitor:      PriorityHigh,
	EventPayment:      PriorityHigh,
	EventComplaint:    PriorityMedium,
	EventMaintenance:  PriorityMedium,
	EventBooking:      PriorityMedium,
	EventAnnouncement: PriorityMedium,
}

// Known reports whether t is part of the catalog.
func (t EventType) Known() bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RouteFor returns the in-app path a notification of type t navigates to.
// Unknown types resolve to the root path.
func RouteFor(t EventType, entityID string) string {
	if t == EventComplaint {
		if entityID == "" {
			return "/complaints"
		}
		return "/complaints/" + entityID
	}
	if route, ok := routes[t]; ok {
		return route
	}
	return "/"
}

// ActionsFor returns the ordered action buttons for t. The returned slice is
// owned by the caller.
func ActionsFor(t EventType) []Action {
	src, ok := actions[t]
	if !ok {
		src = defaultActions
	}
	out := make([]Action, len(src))
	copy(out, src)
	return out
}

// VibrationFor returns the vibration pattern in milliseconds for p.
func VibrationFor(p Priority) []int {
	src := vibrations[p]
	out := make([]int, len(src))
	copy(out, src)
	return out
}

// DefaultPriority is used when a producer does not state a priority.
func DefaultPriority(t EventType) Priority {
	if p, ok := defaultPriorities[t]; ok {
		return p
	}
	return PriorityDefault
}

func ParseEventType(s string) EventType {
	return EventType(strings.ToLower(strings.TrimSpace(s)))
}

// ParsePriority maps s onto a known priority, falling back to PriorityDefault.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityCritical, PriorityHigh, PriorityMedium:
		return p
	default:
		return PriorityDefault
	}
}

func IsDismiss(actionID string) bool {
	return actionID == ActionDismiss
}
