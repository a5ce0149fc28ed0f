// Package actor identifies the user or system performing an action.
//
// The auth middleware stores the authenticated user; repositories read it to
// bind the caller into row-level security, and services stamp created_by /
// recorded_by columns from it.
package actor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Base roles held organization-wide.
const (
	RoleAdmin          = "admin"
	RoleSuperintendent = "superintendent"
	RoleEngineer       = "engineer"
	RoleForeman        = "foreman"
	RoleWorker         = "worker"
)

// Actor represents the entity performing an action in the system.
type Actor struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	BaseRole       string    `json:"base_role"`
}

// FullName returns the actor's full name (first + last)
func (a *Actor) FullName() string {
	if a == nil {
		return ""
	}
	return a.FirstName + " " + a.LastName
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a.IsSystem() {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.FullName(), a.Email)
}

// IsAdmin reports whether the actor is an organization admin.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.BaseRole == RoleAdmin
}

// IsSystem returns true for the system actor and for a nil actor.
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == uuid.Nil
}

type contextKey struct{}

// FromContext retrieves the Actor from the context.
func FromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(*Actor)
	return a, ok && a != nil
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// SystemActor represents operator tooling and background jobs. It carries
// no organization and is never bound into row-level security.
func SystemActor() *Actor {
	return &Actor{FirstName: "System", Email: "system@crewboard.local", BaseRole: RoleAdmin}
}

// IDOrNil returns the actor id as a nullable pointer for audit columns.
func (a *Actor) IDOrNil() *uuid.UUID {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}
