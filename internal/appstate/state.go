// Package appstate holds the process-wide notification state: the host
// capability, the permission outcome and the delivery token.
//
// A State is created once at application start, passed by reference to the
// dispatch facade and the token manager, and torn down at process exit.
package appstate

import (
	"sync"

	"hostelnotify/internal/host"
)

// DeliveryToken is a snapshot of the held push token.
type DeliveryToken struct {
	Value                 string
	RegisteredWithBackend bool
}

type State struct {
	capability host.Capability

	mu         sync.RWMutex
	permission host.Permission
	token      DeliveryToken
}

func New(capability host.Capability) *State {
	return &State{capability: capability}
}

func (s *State) Capability() host.Capability {
	return s.capability
}

func (s *State) SetPermission(p host.Permission) {
	s.mu.Lock()
	s.permission = p
	s.mu.Unlock()
}

func (s *State) Permission() host.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permission
}

func (s *State) PermissionGranted() bool {
	return s.Permission() == host.PermissionGranted
}

// SetToken replaces the held token. A new value resets the registration flag;
// the previous value is discarded.
func (s *State) SetToken(value string) (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.token.Value
	if previous != value {
		s.token = DeliveryToken{Value: value}
	}
	return previous
}

func (s *State) Token() DeliveryToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// MarkRegistered records a successful backend registration of value. It is a
// no-op returning false when value is no longer the held token.
func (s *State) MarkRegistered(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" || s.token.Value != value {
		return false
	}
	s.token.RegisteredWithBackend = true
	return true
}

// Teardown clears the token and permission.
func (s *State) Teardown() {
	s.mu.Lock()
	s.token = DeliveryToken{}
	s.permission = host.PermissionPrompt
	s.mu.Unlock()
}
