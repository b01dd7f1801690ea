package constants

const (
	RoleProvider = "provider"
	RoleGuest    = "guest"
)

// ValidRoles is the set of allowed values for users.role.
var ValidRoles = []string{RoleGuest, RoleProvider}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
