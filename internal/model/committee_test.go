package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newCommittee() *Committee {
	return &Committee{
		Id:          uuid.New(),
		ChairId:     uuid.New(),
		SecretaryId: uuid.New(),
		MemberId:    uuid.New(),
		Active:      true,
	}
}

func TestCommitteeRoleOf(t *testing.T) {
	c := newCommittee()

	assert.Equal(t, RoleChair, c.RoleOf(c.ChairId))
	assert.Equal(t, RoleSecretary, c.RoleOf(c.SecretaryId))
	assert.Equal(t, RoleMember, c.RoleOf(c.MemberId))
	assert.Equal(t, RoleNone, c.RoleOf(uuid.New()))
	assert.Equal(t, RoleNone, c.RoleOf(uuid.Nil))

	// a copy of the identifier value must match
	copied, err := uuid.Parse(c.ChairId.String())
	assert.NoError(t, err)
	assert.Equal(t, RoleChair, c.RoleOf(copied))
}

func TestCommitteeIsComplete(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		assert.True(t, newCommittee().IsComplete())
	})

	t.Run("Inactive", func(t *testing.T) {
		c := newCommittee()
		c.Active = false
		assert.False(t, c.IsComplete())
	})

	t.Run("VacantRole", func(t *testing.T) {
		c := newCommittee()
		c.MemberId = uuid.Nil
		assert.False(t, c.IsComplete())
		assert.True(t, c.HasDistinctRoles())
	})

	t.Run("DuplicateHolder", func(t *testing.T) {
		c := newCommittee()
		c.SecretaryId = c.ChairId
		assert.False(t, c.IsComplete())
		assert.False(t, c.HasDistinctRoles())
	})
}

func TestDefenseEndsAt(t *testing.T) {
	d := &Defense{DurationMinutes: 45}
	assert.Equal(t, d.StartsAt.Add(45*time.Minute), d.EndsAt())
}
