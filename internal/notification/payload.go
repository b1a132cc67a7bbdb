package notification

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"hostelnotify/internal/catalog"
)

const (
	DefaultTitle = "Hostel Management"
	DefaultBody  = "You have a new notification"
)

// Longer titles and bodies are cut to these rune counts on decode.
const (
	MaxTitleLength = 256
	MaxBodyLength  = 4096
)

// Wire format of a push payload:
//
//	{"notification": {"title": "...", "body": "..."},
//	 "data": {"type": "...", "entityId": "...", "priority": "...", "action": "..."}}
type wirePayload struct {
	Notification *wireNotification `json:"notification,omitempty"`
	Data         wireData          `json:"data"`
}

type wireNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type wireData struct {
	Type     string `json:"type,omitempty"`
	EntityID string `json:"entityId,omitempty"`
	Priority string `json:"priority,omitempty"`
	Action   string `json:"action,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
	HostelID string `json:"hostelId,omitempty"`
	Role     string `json:"role,omitempty"`

	SourceHostelID string `json:"sourceHostelId,omitempty"`
}

// DecodePayload parses a raw push payload. Only unparseable input fails, with
// ErrMalformedPayload; callers recover with FallbackEvent. Unknown types and
// priorities fall through to the catalog defaults.
func DecodePayload(raw []byte) (Event, error) {
	var p wirePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	eventType := catalog.ParseEventType(p.Data.Type)
	priority := catalog.DefaultPriority(eventType)
	if p.Data.Priority != "" {
		priority = catalog.ParsePriority(p.Data.Priority)
	}

	e := Event{
		Type:     eventType,
		Priority: priority,
		EntityID: p.Data.EntityID,
		Scope: RecipientScope{
			TenantID: p.Data.TenantID,
			HostelID: p.Data.HostelID,
			Role:     p.Data.Role,
		},
		SourceHostelID: p.Data.SourceHostelID,
		Title:          DefaultTitle,
		Body:           DefaultBody,
	}
	if p.Notification != nil {
		if t := strings.TrimSpace(p.Notification.Title); t != "" {
			e.Title = truncate(t, MaxTitleLength)
		}
		if b := strings.TrimSpace(p.Notification.Body); b != "" {
			e.Body = truncate(b, MaxBodyLength)
		}
	}
	return e, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// FallbackEvent is the reduced-fidelity event shown for a payload that could
// not be decoded: generic title, the raw text as body, no type.
func FallbackEvent(raw []byte) Event {
	body := strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
	if body == "" {
		body = DefaultBody
	}
	return Event{
		Priority: catalog.PriorityDefault,
		Title:    DefaultTitle,
		Body:     body,
	}
}

// EncodePayload renders req in the wire format accepted by DecodePayload.
func EncodePayload(req *Request) ([]byte, error) {
	p := wirePayload{
		Notification: &wireNotification{Title: req.Title, Body: req.Body},
		Data: wireData{
			Type:     string(req.Data.Type),
			EntityID: req.Data.EntityID,
			Priority: string(req.Priority),
			Action:   req.Data.Action,
			TenantID: req.Data.Scope.TenantID,
			HostelID: req.Data.Scope.HostelID,
			Role:     req.Data.Scope.Role,

			SourceHostelID: req.Data.SourceHostelID,
		},
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}
	return b, nil
}
