package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"hostelnotify/internal/config"
	"hostelnotify/internal/dispatch"
	"hostelnotify/internal/notification"
)

// commands maps console lines onto facade calls:
//
//	emergency <message>
//	announce <title> | <body>
//	complaint <id> <title>
//	complaint-update <id> <status>
//	visitor <id> <name>
//	payment-due <amount> <YYYY-MM-DD>
//	payment-received <amount>
//	maintenance <id> <status>
//	booking <id> <status>
type commands struct {
	facade *dispatch.Facade
	cfg    *config.Config
	logger *slog.Logger
}

func (c *commands) handle(ctx context.Context, fields []string) bool {
	rest := strings.Join(fields[1:], " ")
	hostelID := c.cfg.HostelID
	tenantID := c.cfg.TenantID
	if tenantID == "" {
		tenantID = c.cfg.UserID
	}

	var err error
	switch fields[0] {
	case "emergency":
		_, err = c.facade.NotifyEmergency(ctx, rest, hostelID)
	case "announce":
		title, body, _ := strings.Cut(rest, "|")
		_, err = c.facade.NotifyAnnouncement(ctx, strings.TrimSpace(title), strings.TrimSpace(body), hostelID)
	case "complaint":
		_, err = c.facade.NotifyNewComplaint(ctx, fields[1], tail(fields), hostelID)
	case "complaint-update":
		_, err = c.facade.NotifyComplaintUpdate(ctx, fields[1], tail(fields), hostelID, tenantID)
	case "visitor":
		_, err = c.facade.NotifyVisitorArrival(ctx, fields[1], tail(fields), tenantID)
	case "maintenance":
		_, err = c.facade.NotifyMaintenanceUpdate(ctx, fields[1], tail(fields), hostelID)
	case "booking":
		_, err = c.facade.NotifyBookingUpdate(ctx, fields[1], tail(fields), tenantID)
	case "payment-due", "payment-received":
		amount, perr := strconv.ParseFloat(fields[1], 64)
		if perr != nil {
			c.logger.Warn("invalid amount", "amount", fields[1])
			return true
		}
		if fields[0] == "payment-received" {
			_, err = c.facade.NotifyPaymentReceived(ctx, tenantID, amount, hostelID)
			break
		}
		due := time.Now().AddDate(0, 0, 7)
		if len(fields) > 2 {
			if due, perr = time.Parse(time.DateOnly, fields[2]); perr != nil {
				c.logger.Warn("invalid due date", "due", fields[2])
				return true
			}
		}
		_, err = c.facade.NotifyPaymentDue(ctx, tenantID, amount, due, hostelID)
	default:
		return false
	}

	if err != nil {
		c.logger.Warn("notification rejected", "command", fields[0], "invalid_event", errors.Is(err, notification.ErrInvalidEvent), "error", err)
	}
	return true
}

func tail(fields []string) string {
	if len(fields) < 3 {
		return ""
	}
	return strings.Join(fields[2:], " ")
}
