package enums

import "fmt"

// PackRole marks a cart line's position inside a pack group.
type PackRole string

const (
	PackRoleNone      PackRole = "none"
	PackRoleParent    PackRole = "parent"
	PackRoleComponent PackRole = "component"
)

var validPackRoles = []PackRole{
	PackRoleNone,
	PackRoleParent,
	PackRoleComponent,
}

// String implements fmt.Stringer.
func (p PackRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PackRole.
func (p PackRole) IsValid() bool {
	for _, candidate := range validPackRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePackRole converts raw input into a PackRole.
func ParsePackRole(value string) (PackRole, error) {
	for _, candidate := range validPackRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pack role %q", value)
}
