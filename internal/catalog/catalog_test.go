package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVibrationFor(t *testing.T) {
	tests := []struct {
		priority Priority
		want     []int
	}{
		{PriorityCritical, []int{200, 100, 200, 100, 200}},
		{PriorityHigh, []int{200, 100, 200}},
		{PriorityMedium, []int{200}},
		{PriorityDefault, []int{}},
		{Priority("urgent"), []int{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, VibrationFor(tt.priority), "priority %q", tt.priority)
	}
}

func TestVibrationForReturnsCopy(t *testing.T) {
	first := VibrationFor(PriorityCritical)
	first[0] = 999

	assert.Equal(t, 200, VibrationFor(PriorityCritical)[0])
}

func TestRouteFor(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventComplaint, "/complaints/42"},
		{EventPayment, "/payments"},
		{EventMaintenance, "/maintenance"},
		{EventVisitor, "/visitors"},
		{EventAnnouncement, "/announcements"},
		{EventBooking, "/bookings"},
		{EventEmergency, "/emergency"},
		{EventType("laundry"), "/"},
		{EventType(""), "/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RouteFor(tt.eventType, "42"), "type %q", tt.eventType)
	}
}

func TestRouteForComplaintWithoutID(t *testing.T) {
	assert.Equal(t, "/complaints", RouteFor(EventComplaint, ""))
}

func TestActionsFor(t *testing.T) {
	assert.Equal(t, []Action{{ID: "view", Label: "View"}}, ActionsFor(EventComplaint))
	assert.Equal(t, []Action{{ID: "pay", Label: "Pay Now"}}, ActionsFor(EventPayment))
	assert.Equal(t, []Action{{ID: "approve", Label: "Approve"}, {ID: "deny", Label: "Deny"}}, ActionsFor(EventVisitor))
	assert.Equal(t, []Action{{ID: "acknowledge", Label: "Acknowledge"}}, ActionsFor(EventEmergency))
	assert.Equal(t, []Action{{ID: "view", Label: "View"}}, ActionsFor(EventBooking))
	assert.Equal(t, []Action{{ID: "view", Label: "View"}}, ActionsFor(EventType("unknown")))
}

func TestDefaultPriority(t *testing.T) {
	assert.Equal(t, PriorityCritical, DefaultPriority(EventEmergency))
	assert.Equal(t, PriorityHigh, DefaultPriority(EventVisitor))
	assert.Equal(t, PriorityMedium, DefaultPriority(EventComplaint))
	assert.Equal(t, PriorityDefault, DefaultPriority(EventType("")))
}

func TestParse(t *testing.T) {
	assert.Equal(t, EventVisitor, ParseEventType(" Visitor "))
	assert.True(t, ParseEventType("BOOKING").Known())
	assert.False(t, ParseEventType("laundry").Known())

	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityDefault, ParsePriority(""))
	assert.Equal(t, PriorityDefault, ParsePriority("urgent"))
}

func TestIsDismiss(t *testing.T) {
	assert.True(t, IsDismiss("dismiss"))
	assert.False(t, IsDismiss("view"))
	assert.False(t, IsDismiss(""))
}
