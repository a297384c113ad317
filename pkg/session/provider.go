// Package session supplies the session id sent with every outbound frame.
package session

import (
	"strings"

	"github.com/google/uuid"
)

// DemoSessionID is the fixed id the backend's demo deployment expects
const DemoSessionID = "demo-session-1"

// Provider supplies a session id
type Provider interface {
	SessionID() string
}

// StaticProvider returns the same id every time
type StaticProvider struct {
	ID string
}

// SessionID implements Provider
func (p StaticProvider) SessionID() string {
	return p.ID
}

// NewProvider returns a StaticProvider for id, or a freshly generated one
// when id is blank.
func NewProvider(id string) StaticProvider {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.New().String()
	}
	return StaticProvider{ID: id}
}
