// Package policy decides which capability, if any, allows an actor to
// perform an action on a kind of resource.
package policy

import (
	"fmt"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
)

// Capability is the rule under which a request was allowed.
type Capability int

const (
	Deny Capability = iota
	ReadPublic
	WriteOwn
	ModeratorOverride
	AdminOnly
	SelfProfile
)

func (c Capability) String() string {
	switch c {
	case ReadPublic:
		return "read_public"
	case WriteOwn:
		return "write_own"
	case ModeratorOverride:
		return "moderator_override"
	case AdminOnly:
		return "admin_only"
	case SelfProfile:
		return "self_profile"
	default:
		return "deny"
	}
}

// Kind is the resource class a request targets.
type Kind int

const (
	KindTitle Kind = iota
	KindCategory
	KindGenre
	KindReview
	KindComment
	KindUser
	KindProfile
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindCategory:
		return "category"
	case KindGenre:
		return "genre"
	case KindReview:
		return "review"
	case KindComment:
		return "comment"
	case KindUser:
		return "user"
	case KindProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Action is the operation class of a request.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Actor is the authenticated identity behind a request, as carried by its bearer token.
type Actor struct {
	UserID      string
	Username    string
	Role        models.Role
	IsSuperuser bool
}

// IsAdmin reports whether the actor has admin privileges.
func (a *Actor) IsAdmin() bool {
	return a != nil && (a.Role == models.RoleAdmin || a.IsSuperuser)
}

// Request describes one operation to authorize. OwnerID is the author of the
// target instance and only matters for updates and deletes of owned content.
type Request struct {
	Actor   *Actor
	Kind    Kind
	Action  Action
	OwnerID string
}

// Authorize returns the capability that allows req, or ErrUnauthenticated /
// ErrForbidden. Admin-gated kinds are checked first, then ownership, then the
// moderator override; anything else is denied.
func Authorize(req Request) (Capability, error) {
	if req.Action == ActionRead && isPublic(req.Kind) {
		return ReadPublic, nil
	}
	if req.Actor == nil {
		return Deny, apperrors.ErrUnauthenticated
	}

	switch req.Kind {
	case KindProfile:
		return SelfProfile, nil
	case KindTitle, KindCategory, KindGenre, KindUser:
		if req.Actor.IsAdmin() {
			return AdminOnly, nil
		}
		return Deny, denied(req)
	case KindReview, KindComment:
		return authorizeOwned(req)
	default:
		return Deny, denied(req)
	}
}

func authorizeOwned(req Request) (Capability, error) {
	switch req.Action {
	case ActionCreate:
		return WriteOwn, nil
	case ActionUpdate, ActionDelete:
		if req.OwnerID != "" && req.OwnerID == req.Actor.UserID {
			return WriteOwn, nil
		}
		if canModerate(req.Actor) {
			return ModeratorOverride, nil
		}
		return Deny, denied(req)
	default:
		return Deny, denied(req)
	}
}

func canModerate(a *Actor) bool {
	if a.IsSuperuser {
		return true
	}
	switch a.Role {
	case models.RoleModerator, models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}

func isPublic(k Kind) bool {
	switch k {
	case KindTitle, KindCategory, KindGenre, KindReview, KindComment:
		return true
	default:
		return false
	}
}

// CanChangeRole reports whether actor may set the role field of any user, itself included.
func CanChangeRole(actor *Actor) bool {
	return actor.IsAdmin()
}

func denied(req Request) error {
	return fmt.Errorf("%s %s: %w", req.Action, req.Kind, apperrors.ErrForbidden)
}
