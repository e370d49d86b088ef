package model

import "github.com/google/uuid"

type Role string

const (
	RoleNone      Role = ""
	RoleChair     Role = "chair"
	RoleSecretary Role = "secretary"
	RoleMember    Role = "member"
)

func (r Role) String() string {
	return string(r)
}

// RoleOf compares identifiers, never object identity.
func (c *Committee) RoleOf(evaluatorId uuid.UUID) Role {
	if evaluatorId == uuid.Nil {
		return RoleNone
	}
	switch evaluatorId {
	case c.ChairId:
		return RoleChair
	case c.SecretaryId:
		return RoleSecretary
	case c.MemberId:
		return RoleMember
	}
	return RoleNone
}

// Evaluators returns the role holders in chair, secretary, member order.
func (c *Committee) Evaluators() []uuid.UUID {
	return []uuid.UUID{c.ChairId, c.SecretaryId, c.MemberId}
}

// HasDistinctRoles reports whether no identity holds two roles. Vacant
// roles are ignored.
func (c *Committee) HasDistinctRoles() bool {
	seen := make(map[uuid.UUID]struct{}, 3)
	for _, id := range c.Evaluators() {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func (c *Committee) IsComplete() bool {
	if !c.Active {
		return false
	}
	for _, id := range c.Evaluators() {
		if id == uuid.Nil {
			return false
		}
	}
	return c.HasDistinctRoles()
}
