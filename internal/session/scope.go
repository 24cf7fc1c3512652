// Package session holds the authenticated session value, the tenant scope
// derived from it, and the gate that tracks session state changes.
package session

import (
	"github.com/google/uuid"
)

// Scope namespaces every store access to one tenant. Its only constructor
// takes a Session, so a tenant id can't be supplied by a request.
type Scope struct {
	tenantID uuid.UUID
}

// TenantID returns the tenant the scope is bound to.
func (s Scope) TenantID() uuid.UUID {
	return s.tenantID
}

// Valid is false for the zero Scope.
func (s Scope) Valid() bool {
	return s.tenantID != uuid.Nil
}

func (s Scope) String() string {
	return s.tenantID.String()
}

// Session is an authenticated user session.
type Session struct {
	UserID       uuid.UUID
	Email        string
	DisplayName  string
	TokenVersion string
}

// New builds a session for an authenticated user.
func New(userID uuid.UUID, email, displayName, tokenVersion string) *Session {
	return &Session{
		UserID:       userID,
		Email:        email,
		DisplayName:  displayName,
		TokenVersion: tokenVersion,
	}
}

// Scope is the tenant scope of the session. Each user is its own tenant.
func (s *Session) Scope() Scope {
	return Scope{tenantID: s.UserID}
}
