package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Dispatched        *prometheus.CounterVec
	DeliveryFailures  *prometheus.CounterVec
	Displayed         prometheus.Counter
	MalformedPayloads prometheus.Counter
	Navigations       *prometheus.CounterVec
	Registrations     *prometheus.CounterVec
	PushesSent        *prometheus.CounterVec
}

// New creates the notification metrics on reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Dispatched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_notifications_dispatched_total",
			Help: "Notification requests built by the dispatch facade",
		}, []string{"type", "path"}),
		DeliveryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_notification_delivery_failures_total",
			Help: "Scheduling, display or relay calls rejected by the platform",
		}, []string{"path"}),
		Displayed: f.NewCounter(prometheus.CounterOpts{
			Name: "hostel_notifications_displayed_total",
			Help: "Push payloads shown by the background listener",
		}),
		MalformedPayloads: f.NewCounter(prometheus.CounterOpts{
			Name: "hostel_notification_malformed_payloads_total",
			Help: "Push payloads shown with fallback content",
		}),
		Navigations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_notification_navigations_total",
			Help: "Notification interactions by outcome",
		}, []string{"outcome"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_token_registrations_total",
			Help: "Delivery token registrations with the backend by outcome",
		}, []string{"outcome"}),
		PushesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_pushes_sent_total",
			Help: "Remote push messages sent by the backend by outcome",
		}, []string{"outcome"}),
	}
}
