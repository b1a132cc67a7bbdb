package pushchannel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelnotify/internal/catalog"
	"hostelnotify/internal/notification"
)

type memConn struct {
	mu          sync.Mutex
	handlers    map[string]func([]byte)
	published   map[string][][]byte
	publishErr  error
	unsubscribe int
	offline     bool
}

func newMemConn() *memConn {
	return &memConn{
		handlers:  make(map[string]func([]byte)),
		published: make(map[string][][]byte),
	}
}

func (c *memConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	if c.publishErr != nil {
		c.mu.Unlock()
		return c.publishErr
	}
	c.published[subject] = append(c.published[subject], data)
	handler := c.handlers[subject]
	c.mu.Unlock()

	if handler != nil {
		handler(data)
	}
	return nil
}

func (c *memConn) Subscribe(subject string, handler func([]byte)) (func() error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[subject] = handler
	return func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, subject)
		c.unsubscribe++
		return nil
	}, nil
}

func (c *memConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.offline
}

func (c *memConn) subscribed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

func TestSubject(t *testing.T) {
	subject, err := Subject("", notification.TenantScope("t-1"))
	require.NoError(t, err)
	assert.Equal(t, "hostel.notifications.tenant.t-1", subject)

	subject, err = Subject("campus", notification.HostelScope("block.a *"))
	require.NoError(t, err)
	assert.Equal(t, "campus.hostel.block_a__", subject)

	subject, err = Subject("campus", notification.RoleScope("warden"))
	require.NoError(t, err)
	assert.Equal(t, "campus.role.warden", subject)

	_, err = Subject("campus", notification.RecipientScope{})
	assert.ErrorIs(t, err, notification.ErrInvalidScope)
}

func TestPublisherRelay(t *testing.T) {
	conn := newMemConn()
	p := NewPublisher(conn, "", nil)

	req, err := notification.Build(notification.Event{
		Type:     catalog.EventComplaint,
		Priority: catalog.PriorityHigh,
		EntityID: "42",
		Scope:    notification.HostelScope("hostelA"),
		Title:    "New Complaint",
		Body:     "Leaking tap",
	})
	require.NoError(t, err)

	require.NoError(t, p.Relay(context.Background(), req))

	msgs := conn.published["hostel.notifications.hostel.hostelA"]
	require.Len(t, msgs, 1)

	e, err := notification.DecodePayload(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, catalog.EventComplaint, e.Type)
	assert.Equal(t, "42", e.EntityID)
	assert.Equal(t, "Leaking tap", e.Body)
	assert.Equal(t, notification.HostelScope("hostelA"), e.Scope)
}

func TestPublisherRelayErrors(t *testing.T) {
	conn := newMemConn()
	conn.publishErr = errors.New("connection closed")
	p := NewPublisher(conn, "", nil)

	req := &notification.Request{Title: "t", Body: "b", Data: notification.Data{Scope: notification.RoleScope("tenant")}}
	assert.ErrorContains(t, p.Relay(context.Background(), req), "connection closed")

	req.Data.Scope = notification.RecipientScope{}
	assert.ErrorIs(t, p.Relay(context.Background(), req), notification.ErrInvalidScope)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Relay(ctx, req), context.Canceled)
}

func TestPublisherRelayWhileDisconnected(t *testing.T) {
	conn := newMemConn()
	conn.offline = true
	p := NewPublisher(conn, "", nil)

	req := &notification.Request{Title: "t", Body: "b", Data: notification.Data{Scope: notification.RoleScope("tenant")}}
	assert.ErrorIs(t, p.Relay(context.Background(), req), ErrNotConnected)
	assert.Empty(t, conn.published)
}

func TestSubscriberRun(t *testing.T) {
	conn := newMemConn()
	s, err := NewSubscriber(conn, "", []notification.RecipientScope{
		notification.TenantScope("t-1"),
		notification.HostelScope("hostelA"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"hostel.notifications.tenant.t-1",
		"hostel.notifications.hostel.hostelA",
	}, s.Subjects())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return conn.subscribed() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Publish("hostel.notifications.hostel.hostelA", []byte(`{"data":{"type":"emergency"}}`)))
	require.NoError(t, conn.Publish("hostel.notifications.hostel.hostelB", []byte(`ignored`)))

	select {
	case raw := <-s.Pushes():
		assert.JSONEq(t, `{"data":{"type":"emergency"}}`, string(raw))
	case <-time.After(time.Second):
		t.Fatal("payload not delivered")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, conn.unsubscribe)
	assert.Zero(t, conn.subscribed())
}

func TestNewSubscriberRejectsInvalidScope(t *testing.T) {
	_, err := NewSubscriber(newMemConn(), "", []notification.RecipientScope{{TenantID: "t", HostelID: "h"}}, nil)
	assert.ErrorIs(t, err, notification.ErrInvalidScope)
}
