package core

import (
	"errors"
	"fmt"
)

// ErrRoleConflict is returned when a surface that already has a role is
// given a different one.
var ErrRoleConflict = errors.New("surface already has a different role")

// Role gives a surface role-specific commit and destroy behaviour, such as a
// toplevel window or a cursor.
type Role interface {
	// Name identifies the role kind. Two roles with the same name are the
	// same role for assignment purposes.
	Name() string
	// BeforeCommit runs before pending state is applied.
	BeforeCommit(s *Surface)
	// AfterDestroy runs once after the surface is destroyed.
	AfterDestroy(s *Surface)
}

// SetRole binds r to the surface. The first assignment always succeeds and a
// role of the same kind may replace the current one; any other role is
// rejected with ErrRoleConflict.
func (s *Surface) SetRole(r Role) error {
	if r == nil {
		return errors.New("nil role")
	}
	if s.role != nil && s.role.Name() != r.Name() {
		return fmt.Errorf("%w: has %q, got %q", ErrRoleConflict, s.role.Name(), r.Name())
	}
	s.role = r
	return nil
}

// Role returns the bound role, if any.
func (s *Surface) Role() (Role, bool) {
	return s.role, s.role != nil
}
