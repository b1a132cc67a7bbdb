package notification

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelnotify/internal/catalog"
)

func emergencyEvent() Event {
	return Event{
		Type:     catalog.EventEmergency,
		Priority: catalog.PriorityCritical,
		Scope:    HostelScope("hostelA"),
		Title:    "Emergency Alert",
		Body:     "Fire drill",
	}
}

func TestBuild(t *testing.T) {
	req, err := Build(emergencyEvent())
	require.NoError(t, err)

	assert.Equal(t, "Emergency Alert", req.Title)
	assert.Equal(t, "Fire drill", req.Body)
	assert.Equal(t, "emergency", req.Tag)
	assert.Equal(t, catalog.PriorityCritical, req.Priority)
	assert.True(t, req.RequireInteraction)
	assert.Equal(t, []int{200, 100, 200, 100, 200}, req.Vibrate)
	assert.Equal(t, []catalog.Action{{ID: "acknowledge", Label: "Acknowledge"}}, req.Actions)
	assert.Equal(t, Data{Type: catalog.EventEmergency, Scope: HostelScope("hostelA")}, req.Data)
}

func TestBuildNonCriticalDoesNotRequireInteraction(t *testing.T) {
	for _, p := range []catalog.Priority{catalog.PriorityHigh, catalog.PriorityMedium, catalog.PriorityDefault} {
		req, err := Build(Event{Type: catalog.EventBooking, Priority: p, Title: "t", Body: "b"})
		require.NoError(t, err)
		assert.False(t, req.RequireInteraction, "priority %q", p)
		assert.Equal(t, catalog.VibrationFor(p), req.Vibrate)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	e := Event{
		Type:     catalog.EventComplaint,
		Priority: catalog.PriorityHigh,
		EntityID: "42",
		Scope:    TenantScope("t-1"),
		Title:    "Complaint updated",
		Body:     "Your complaint is now in progress",
	}

	first, err := Build(e)
	require.NoError(t, err)
	second, err := Build(e)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRequestsDoNotShareSlices(t *testing.T) {
	first, err := Build(emergencyEvent())
	require.NoError(t, err)
	first.Vibrate[0] = 1
	first.Actions[0].Label = "changed"

	second, err := Build(emergencyEvent())
	require.NoError(t, err)
	assert.Equal(t, 200, second.Vibrate[0])
	assert.Equal(t, "Acknowledge", second.Actions[0].Label)
}

func TestBuildInvalidEvent(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{"missing title", Event{Type: catalog.EventPayment, Body: "due"}},
		{"missing body", Event{Type: catalog.EventPayment, Title: "Payment"}},
		{"missing both", Event{Type: catalog.EventPayment}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Build(tt.event)
			assert.Nil(t, req)
			assert.True(t, errors.Is(err, ErrInvalidEvent), "got %v", err)
		})
	}
}

func TestBuildIgnoresScopeValidity(t *testing.T) {
	_, err := Build(Event{Title: "t", Body: "b"})
	assert.NoError(t, err)
}

func TestValidateScope(t *testing.T) {
	assert.NoError(t, ValidateScope(TenantScope("t-1")))
	assert.NoError(t, ValidateScope(HostelScope("h-1")))
	assert.NoError(t, ValidateScope(RoleScope("warden")))

	assert.ErrorIs(t, ValidateScope(RecipientScope{}), ErrInvalidScope)
	assert.ErrorIs(t, ValidateScope(RecipientScope{TenantID: "t", HostelID: "h"}), ErrInvalidScope)
}

func TestDataMap(t *testing.T) {
	d := Data{Type: catalog.EventComplaint, EntityID: "42", Scope: HostelScope("h-1"), Action: "view"}

	assert.Equal(t, map[string]string{
		"type":     "complaint",
		"entityId": "42",
		"hostelId": "h-1",
		"action":   "view",
	}, d.Map())
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "tenant:t-1", TenantScope("t-1").Key())
	assert.Equal(t, "hostel:h-1", HostelScope("h-1").Key())
	assert.Equal(t, "role:warden", RoleScope("warden").Key())
	assert.Equal(t, "", RecipientScope{}.Key())
}
