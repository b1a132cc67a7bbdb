package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelnotify/internal/appstate"
	"hostelnotify/internal/catalog"
	"hostelnotify/internal/host"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/notification"
)

type recorder struct {
	mu        sync.Mutex
	scheduled []*notification.Request
	shown     []*notification.Request
	relayed   []*notification.Request
	at        []time.Time

	scheduleErr error
	showErr     error
	relayErr    error
	panicOnShow bool

	focused bool
	online  bool
}

func (r *recorder) Schedule(ctx context.Context, req *notification.Request, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, req)
	r.at = append(r.at, at)
	return r.scheduleErr
}

func (r *recorder) ShowNotification(ctx context.Context, id string, req *notification.Request) error {
	if r.panicOnShow {
		panic("display crashed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, req)
	return r.showErr
}

func (r *recorder) CloseNotification(ctx context.Context, id string) error { return nil }

func (r *recorder) Relay(ctx context.Context, req *notification.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relayed = append(r.relayed, req)
	return r.relayErr
}

func (r *recorder) Focused() bool { return r.focused }
func (r *recorder) Online() bool  { return r.online }

func newFacade(capability host.Capability, permission host.Permission, r *recorder) (*Facade, *metrics.Metrics) {
	state := appstate.New(capability)
	state.SetPermission(permission)
	m := metrics.New(nil)
	return New(Config{
		State:     state,
		Scheduler: r,
		Notifier:  r,
		Presence:  r,
		Relay:     r,
		Metrics:   m,
	}), m
}

func TestNotifyEmergencyEndToEnd(t *testing.T) {
	r := &recorder{online: true}
	f, _ := newFacade(host.Native, host.PermissionGranted, r)

	req, err := f.NotifyEmergency(context.Background(), "Fire drill", "hostelA")
	require.NoError(t, err)
	f.Wait()

	assert.Equal(t, catalog.PriorityCritical, req.Priority)
	assert.True(t, req.RequireInteraction)
	assert.Equal(t, []catalog.Action{{ID: "acknowledge", Label: "Acknowledge"}}, req.Actions)
	assert.Equal(t, []int{200, 100, 200, 100, 200}, req.Vibrate)
	assert.Equal(t, "Fire drill", req.Body)
	assert.Equal(t, notification.HostelScope("hostelA"), req.Data.Scope)

	require.Len(t, r.scheduled, 1)
	assert.Same(t, req, r.scheduled[0])
	assert.Len(t, r.relayed, 1)
}

func TestNativeSchedulesImmediately(t *testing.T) {
	r := &recorder{}
	f, _ := newFacade(host.Native, host.PermissionGranted, r)

	before := time.Now()
	_, err := f.NotifyNewComplaint(context.Background(), "c-1", "Broken fan", "hostelA")
	require.NoError(t, err)
	f.Wait()

	require.Len(t, r.at, 1)
	assert.WithinDuration(t, before, r.at[0], time.Second)
	assert.Empty(t, r.shown)
}

func TestBrowserFocusedShowsDirectly(t *testing.T) {
	r := &recorder{focused: true}
	f, _ := newFacade(host.Browser, host.PermissionGranted, r)

	req, err := f.NotifyVisitorArrival(context.Background(), "v-1", "Ravi", "t-1")
	require.NoError(t, err)
	f.Wait()

	require.Len(t, r.shown, 1)
	assert.Same(t, req, r.shown[0])
	assert.Empty(t, r.scheduled)
}

func TestBrowserBackgroundDefersToListener(t *testing.T) {
	r := &recorder{focused: false}
	f, _ := newFacade(host.Browser, host.PermissionGranted, r)

	_, err := f.NotifyBookingUpdate(context.Background(), "b-1", "confirmed", "t-1")
	require.NoError(t, err)
	f.Wait()

	assert.Empty(t, r.shown)
	assert.Empty(t, r.scheduled)
}

func TestPermissionDeniedSkipsLocalDisplay(t *testing.T) {
	for _, capability := range []host.Capability{host.Native, host.Browser} {
		r := &recorder{focused: true, online: true}
		f, _ := newFacade(capability, host.PermissionDenied, r)

		req, err := f.NotifyAnnouncement(context.Background(), "Water cut", "No water 2-4pm", "hostelA")
		require.NoError(t, err)
		require.NotNil(t, req)
		f.Wait()

		assert.Empty(t, r.shown, capability.String())
		assert.Empty(t, r.scheduled, capability.String())
		assert.Len(t, r.relayed, 1, "other devices still get the push")
	}
}

func TestOfflineSkipsRelay(t *testing.T) {
	r := &recorder{online: false}
	f, _ := newFacade(host.Native, host.PermissionGranted, r)

	_, err := f.NotifyMaintenanceUpdate(context.Background(), "m-1", "scheduled", "hostelA")
	require.NoError(t, err)
	f.Wait()

	assert.Len(t, r.scheduled, 1)
	assert.Empty(t, r.relayed)
}

func TestDeliveryFailuresAreSwallowed(t *testing.T) {
	r := &recorder{
		online:      true,
		scheduleErr: errors.New("scheduler rejected"),
		relayErr:    errors.New("broker down"),
	}
	f, m := newFacade(host.Native, host.PermissionGranted, r)

	req, err := f.NotifyPaymentDue(context.Background(), "t-1", 4500, time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC), "hostelA")
	require.NoError(t, err)
	require.NotNil(t, req)
	f.Wait()

	assert.Equal(t, "Your payment of 4500.00 is due on 05 Nov 2026", req.Body)
	assert.Equal(t, notification.TenantScope("t-1"), req.Data.Scope)
	assert.Equal(t, "hostelA", req.Data.SourceHostelID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("relay")))
}

func TestDeliveryPanicIsRecovered(t *testing.T) {
	r := &recorder{focused: true, panicOnShow: true}
	f, m := newFacade(host.Browser, host.PermissionGranted, r)

	req, err := f.NotifyPaymentReceived(context.Background(), "t-1", 100, "hostelA")
	require.NoError(t, err)
	assert.Equal(t, "hostelA", req.Data.SourceHostelID)
	f.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("panic")))
}

func TestInvalidEventIsSurfaced(t *testing.T) {
	r := &recorder{}
	f, m := newFacade(host.Native, host.PermissionGranted, r)

	req, err := f.NotifyAnnouncement(context.Background(), "", "", "hostelA")
	assert.Nil(t, req)
	assert.ErrorIs(t, err, notification.ErrInvalidEvent)

	req, err = f.NotifyVisitorArrival(context.Background(), "v-1", "Ravi", "")
	assert.Nil(t, req)
	assert.ErrorIs(t, err, notification.ErrInvalidEvent)

	f.Wait()
	assert.Empty(t, r.scheduled)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Dispatched.WithLabelValues("announcement", "native")))
}

func TestComplaintUpdateScope(t *testing.T) {
	r := &recorder{}
	f, _ := newFacade(host.Native, host.PermissionGranted, r)

	req, err := f.NotifyComplaintUpdate(context.Background(), "42", "resolved", "hostelA", "t-1")
	require.NoError(t, err)
	assert.Equal(t, notification.TenantScope("t-1"), req.Data.Scope)
	assert.Equal(t, "42", req.Data.EntityID)
	assert.Equal(t, "complaint", req.Tag)

	req, err = f.NotifyComplaintUpdate(context.Background(), "42", "resolved", "hostelA", "")
	require.NoError(t, err)
	assert.Equal(t, notification.HostelScope("hostelA"), req.Data.Scope)
	f.Wait()
}

func TestCallerCancellationDoesNotStopDelivery(t *testing.T) {
	r := &recorder{}
	f, _ := newFacade(host.Native, host.PermissionGranted, r)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.NotifyEmergency(ctx, "Gas leak", "hostelA")
	cancel()
	require.NoError(t, err)
	f.Wait()

	assert.Len(t, r.scheduled, 1)
}
