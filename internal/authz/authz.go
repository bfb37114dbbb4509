// Package authz decides who may do what. Every function is pure: the caller and the
// facts about the target object are passed in, nothing is read from request state.
package authz

import (
	"errors"

	"github.com/google/uuid"

	"feedback-board-api/internal/domain"
)

var (
	// ErrUnauthenticated is returned when the action needs a caller and there is none
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller is known but the action is denied
	ErrForbidden = errors.New("permission denied")
)

// Caller is the identity an operation runs as. A nil *Caller is an anonymous request.
type Caller struct {
	UserID      uuid.UUID
	Username    string
	Role        domain.Role
	IsSuperuser bool
}

// Kind names a resource type in the permission table
type Kind string

const (
	KindBoard    Kind = "board"
	KindFeedback Kind = "feedback"
	KindComment  Kind = "comment"
	KindTag      Kind = "tag"
	KindUser     Kind = "user"
)

// Action names an operation in the permission table
type Action string

const (
	ActionList       Action = "list"
	ActionRetrieve   Action = "retrieve"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionAddMember  Action = "add_member"
	ActionUpvote     Action = "upvote"
	ActionMove       Action = "move"
	ActionChangeRole Action = "change_role"
)

// BoardAccess holds the visibility facts for the board that owns the target object
type BoardAccess struct {
	IsPublic       bool
	CallerIsMember bool
}

// Resource describes the target of an action. Board is nil for collection-level actions.
type Resource struct {
	Kind    Kind
	OwnerID *uuid.UUID
	Board   *BoardAccess
}

// IsAuthenticated reports whether there is a caller
func IsAuthenticated(c *Caller) bool {
	return c != nil
}

// IsAdmin reports whether the caller holds the admin role
func IsAdmin(c *Caller) bool {
	return c != nil && c.Role == domain.RoleAdmin
}

// IsOwnerOrAdmin reports whether the caller is an admin or created the object.
// An object whose creator was deleted (nil owner) is editable by admins only.
func IsOwnerOrAdmin(c *Caller, ownerID *uuid.UUID) bool {
	if IsAdmin(c) {
		return true
	}
	return c != nil && ownerID != nil && *ownerID == c.UserID
}

// IsBoardVisible reports whether the caller may read a board and the objects under it
func IsBoardVisible(c *Caller, access BoardAccess) bool {
	if access.IsPublic {
		return true
	}
	return c != nil && access.CallerIsMember
}

type rule struct {
	anonymous bool
	allow     func(c *Caller, r Resource) bool
}

func authenticated(c *Caller, _ Resource) bool { return true }

func adminOnly(c *Caller, _ Resource) bool { return IsAdmin(c) }

func visible(c *Caller, r Resource) bool {
	return r.Board != nil && IsBoardVisible(c, *r.Board)
}

func visibleOwnerOrAdmin(c *Caller, r Resource) bool {
	return visible(c, r) && IsOwnerOrAdmin(c, r.OwnerID)
}

func visibleAdmin(c *Caller, r Resource) bool {
	return visible(c, r) && IsAdmin(c)
}

func anyone(c *Caller, _ Resource) bool { return true }

// table lists every permitted (kind, action) pair. Missing pairs are denied.
// List actions only require a caller: rows are filtered by the store query, not rejected.
var table = map[Kind]map[Action]rule{
	KindBoard: {
		ActionList:      {allow: authenticated},
		ActionRetrieve:  {allow: visible},
		ActionCreate:    {allow: adminOnly},
		ActionUpdate:    {allow: adminOnly},
		ActionDelete:    {allow: adminOnly},
		ActionAddMember: {allow: adminOnly},
	},
	KindFeedback: {
		ActionList:     {allow: authenticated},
		ActionRetrieve: {allow: visible},
		ActionCreate:   {allow: authenticated},
		ActionUpdate:   {allow: visibleOwnerOrAdmin},
		ActionDelete:   {allow: visibleOwnerOrAdmin},
		ActionUpvote:   {allow: visible},
		ActionMove:     {allow: visibleAdmin},
	},
	KindComment: {
		ActionList:     {allow: authenticated},
		ActionRetrieve: {allow: visible},
		ActionCreate:   {allow: authenticated},
		ActionUpdate:   {allow: visibleOwnerOrAdmin},
		ActionDelete:   {allow: visibleOwnerOrAdmin},
	},
	KindTag: {
		ActionList:     {anonymous: true, allow: anyone},
		ActionRetrieve: {anonymous: true, allow: anyone},
		ActionCreate:   {allow: authenticated},
		ActionUpdate:   {allow: adminOnly},
		ActionDelete:   {allow: adminOnly},
	},
	KindUser: {
		ActionRetrieve:   {allow: authenticated},
		ActionChangeRole: {allow: adminOnly},
		ActionDelete:     {allow: adminOnly},
	},
}

// Authorize checks one action against the permission table
func Authorize(c *Caller, action Action, r Resource) error {
	actions, ok := table[r.Kind]
	if !ok {
		return ErrForbidden
	}
	ru, ok := actions[action]
	if !ok {
		if c == nil {
			return ErrUnauthenticated
		}
		return ErrForbidden
	}
	if c == nil && !ru.anonymous {
		return ErrUnauthenticated
	}
	if !ru.allow(c, r) {
		return ErrForbidden
	}
	return nil
}

// Allows is Authorize reduced to a boolean
func Allows(c *Caller, action Action, r Resource) bool {
	return Authorize(c, action, r) == nil
}
