// Package policy holds the per-resource access predicates consulted at every
// data-access boundary. Handlers never decide access on their own; they build
// a Request and ask Allow.
package policy

import (
	"github.com/shala-app/shala/internal/rbac"
)

// Resource identifies a protected resource class.
type Resource int

const (
	// ResourceBooking covers class bookings.
	ResourceBooking Resource = iota
	// ResourceInbox covers studio queries and contact messages.
	ResourceInbox
	// ResourceContent covers published articles and the mantra library.
	ResourceContent
	// ResourceRoles covers the role catalog and the assignment store.
	ResourceRoles
)

// String returns the metric label for the resource.
func (r Resource) String() string {
	switch r {
	case ResourceBooking:
		return "booking"
	case ResourceInbox:
		return "inbox"
	case ResourceContent:
		return "content"
	case ResourceRoles:
		return "roles"
	}
	return "unknown"
}

// Op is the kind of access being attempted.
type Op int

const (
	// OpRead is any listing or fetch.
	OpRead Op = iota
	// OpWrite is any create, update, or delete.
	OpWrite
)

// String returns the metric label for the operation.
func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Request describes one access attempt. OwnsResource carries the caller's
// independently evaluated ownership of the specific row, which only matters
// for booking reads.
type Request struct {
	Resource     Resource
	Op           Op
	OwnsResource bool
}

// Observer receives the outcome of every evaluated decision.
type Observer interface {
	ObserveAuthzDecision(resource, op string, allowed bool)
}

// Decider evaluates the access table and reports each outcome to an observer.
// A nil Decider or nil observer evaluates without recording, so tests and
// metric-free wiring need no stub.
type Decider struct {
	obs Observer
}

// NewDecider builds a Decider reporting to obs.
func NewDecider(obs Observer) *Decider {
	return &Decider{obs: obs}
}

// Allow evaluates the request and records the outcome.
func (d *Decider) Allow(ev rbac.Evaluator, req Request) bool {
	allowed := Allow(ev, req)
	if d != nil && d.obs != nil {
		d.obs.ObserveAuthzDecision(req.Resource.String(), req.Op.String(), allowed)
	}
	return allowed
}

// Allow evaluates the access table for the caller's evaluator.
//
//	booking   read: admin or owner        write: admin
//	inbox     read: admin                 write: admin
//	content   read: public                write: mantra_curator or admin
//	roles     read: public                write: super_admin
func Allow(ev rbac.Evaluator, req Request) bool {
	switch req.Resource {
	case ResourceBooking:
		if req.Op == OpRead {
			return ev.IsAdmin() || req.OwnsResource
		}
		return ev.IsAdmin()
	case ResourceInbox:
		return ev.IsAdmin()
	case ResourceContent:
		if req.Op == OpRead {
			return true
		}
		return ev.HasRole(rbac.RoleMantraCurator) || ev.IsAdmin()
	case ResourceRoles:
		if req.Op == OpRead {
			return true
		}
		return ev.CanManageRoles()
	}
	return false
}
