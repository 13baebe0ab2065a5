package auth

import "github.com/google/uuid"

// Action is the verb class of a request.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind partitions resources for authorization purposes.
type ResourceKind string

const (
	// ResourceCatalog covers titles, genres and categories (admin-only writes)
	ResourceCatalog ResourceKind = "catalog"
	ResourceReview  ResourceKind = "review"
	ResourceComment ResourceKind = "comment"
)

// Actor is the resolved identity making a request: either anonymous or
// the snapshot carried by a validated access token. It is an explicit
// value threaded into every authorization check, there is no ambient
// current user.
type Actor struct {
	ID            uuid.UUID
	Role          UserRole
	Superuser     bool
	Authenticated bool
}

// AnonymousActor is the actor for requests carrying no credential.
func AnonymousActor() Actor {
	return Actor{}
}

// ActorForIdentity builds an authenticated actor from a stored user.
func ActorForIdentity(user *User) Actor {
	if user == nil {
		return AnonymousActor()
	}
	return Actor{
		ID:            user.ID,
		Role:          user.Role,
		Superuser:     user.Superuser,
		Authenticated: true,
	}
}

// Decide is the authorization decision table, evaluated in order with
// first match winning:
//
//  1. reads are open to everyone, anonymous included
//  2. admin role and the superuser override bypass all checks
//  3. catalog-entity writes are admin-only
//  4. any authenticated actor may create reviews and comments
//  5. update/delete of a review or comment is limited to its author or
//     a moderator
//  6. everything else is denied
//
// It is pure data-in/data-out with no I/O so it can be tested against
// the full input cross-product.
func Decide(actor Actor, action Action, kind ResourceKind, owner uuid.UUID) bool {
	if action == ActionRead {
		return true
	}

	if actor.Authenticated && (actor.Superuser || actor.Role == RoleAdmin) {
		return true
	}

	if kind == ResourceCatalog {
		return false
	}

	switch action {
	case ActionCreate:
		return actor.Authenticated
	case ActionUpdate, ActionDelete:
		if !actor.Authenticated {
			return false
		}
		return actor.ID == owner || actor.Role == RoleModerator
	}

	return false
}

// Check wraps Decide into the error taxonomy. The denial carries no
// detail beyond "not allowed".
func Check(actor Actor, action Action, kind ResourceKind, owner uuid.UUID) error {
	if Decide(actor, action, kind, owner) {
		return nil
	}
	return ErrPermissionDenied
}
