// Package pushchannel carries encoded push payloads between the dispatch
// relay and background listeners over NATS. Each recipient scope has its own
// subject: <prefix>.tenant.<id>, <prefix>.hostel.<id> or <prefix>.role.<name>.
package pushchannel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"hostelnotify/internal/notification"
)

const DefaultPrefix = "hostel.notifications"

var ErrNotConnected = errors.New("push channel not connected")

// Conn is the subset of a NATS connection used by the push channel.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
	IsConnected() bool
}

type Client struct {
	nc *nats.Conn
}

func Connect(url, name string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Client{nc: nc}, nil
}

func (c *Client) Publish(subject string, data []byte) error {
	return c.nc.Publish(subject, data)
}

func (c *Client) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains pending messages before closing the connection.
func (c *Client) Close() error {
	return c.nc.Drain()
}

var subjectReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// Subject returns the subject carrying notifications for scope.
func Subject(prefix string, scope notification.RecipientScope) (string, error) {
	if err := notification.ValidateScope(scope); err != nil {
		return "", err
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	kind, id := "role", scope.Role
	switch {
	case scope.TenantID != "":
		kind, id = "tenant", scope.TenantID
	case scope.HostelID != "":
		kind, id = "hostel", scope.HostelID
	}
	return prefix + "." + kind + "." + subjectReplacer.Replace(id), nil
}
