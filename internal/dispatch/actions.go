package dispatch

import (
	"context"
	"fmt"
	"time"

	"hostelnotify/internal/catalog"
	"hostelnotify/internal/notification"
)

func (f *Facade) NotifyNewComplaint(ctx context.Context, complaintID, title, hostelID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventComplaint,
		Priority: catalog.PriorityHigh,
		EntityID: complaintID,
		Scope:    notification.HostelScope(hostelID),
		Title:    "New Complaint",
		Body:     fmt.Sprintf("A new complaint has been filed: %s", title),
	})
}

// NotifyComplaintUpdate tells the tenant who filed the complaint. Without a
// tenant it falls back to the whole hostel.
func (f *Facade) NotifyComplaintUpdate(ctx context.Context, complaintID, status, hostelID, tenantID string) (*notification.Request, error) {
	scope := notification.TenantScope(tenantID)
	if tenantID == "" {
		scope = notification.HostelScope(hostelID)
	}
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventComplaint,
		Priority: catalog.PriorityMedium,
		EntityID: complaintID,
		Scope:    scope,
		Title:    "Complaint Updated",
		Body:     fmt.Sprintf("Your complaint status has been updated to: %s", status),
	})
}

func (f *Facade) NotifyPaymentDue(ctx context.Context, tenantID string, amount float64, dueDate time.Time, hostelID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventPayment,
		Priority: catalog.PriorityHigh,
		Scope:    notification.TenantScope(tenantID),

		SourceHostelID: hostelID,
		Title:          "Payment Due",
		Body:           fmt.Sprintf("Your payment of %.2f is due on %s", amount, dueDate.Format("02 Jan 2006")),
	})
}

func (f *Facade) NotifyPaymentReceived(ctx context.Context, tenantID string, amount float64, hostelID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventPayment,
		Priority: catalog.PriorityMedium,
		Scope:    notification.TenantScope(tenantID),

		SourceHostelID: hostelID,
		Title:          "Payment Received",
		Body:           fmt.Sprintf("We received your payment of %.2f. Thank you!", amount),
	})
}

func (f *Facade) NotifyMaintenanceUpdate(ctx context.Context, requestID, status, hostelID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventMaintenance,
		Priority: catalog.PriorityMedium,
		EntityID: requestID,
		Scope:    notification.HostelScope(hostelID),
		Title:    "Maintenance Update",
		Body:     fmt.Sprintf("Maintenance request status: %s", status),
	})
}

func (f *Facade) NotifyVisitorArrival(ctx context.Context, visitorID, visitorName, tenantID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventVisitor,
		Priority: catalog.PriorityHigh,
		EntityID: visitorID,
		Scope:    notification.TenantScope(tenantID),
		Title:    "Visitor Arrival",
		Body:     fmt.Sprintf("%s is waiting for you at the reception", visitorName),
	})
}

func (f *Facade) NotifyAnnouncement(ctx context.Context, title, message, hostelID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventAnnouncement,
		Priority: catalog.PriorityMedium,
		Scope:    notification.HostelScope(hostelID),
		Title:    title,
		Body:     message,
	})
}

func (f *Facade) NotifyBookingUpdate(ctx context.Context, bookingID, status, tenantID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventBooking,
		Priority: catalog.PriorityMedium,
		EntityID: bookingID,
		Scope:    notification.TenantScope(tenantID),
		Title:    "Booking Update",
		Body:     fmt.Sprintf("Your booking is now %s", status),
	})
}

func (f *Facade) NotifyEmergency(ctx context.Context, message, hostelID string) (*notification.Request, error) {
	return f.Dispatch(ctx, notification.Event{
		Type:     catalog.EventEmergency,
		Priority: catalog.PriorityCritical,
		Scope:    notification.HostelScope(hostelID),
		Title:    "Emergency Alert",
		Body:     message,
	})
}
