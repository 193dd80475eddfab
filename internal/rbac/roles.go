package rbac

// Role names. Keep these stable; they are part of auth contracts and are
// matched against the role names stored in the roles table.
const (
	// RoleAdmin is the administrative super-role. It bypasses department
	// and management checks entirely.
	RoleAdmin = "Admin"
	// RoleStaff is the default non-privileged role new accounts receive.
	RoleStaff = "Staff"
)

// Access levels derived from role names. Levels are recomputed on every
// check and must never be cached on a user record.
const (
	LevelAdmin = 10
	LevelStaff = 1
	LevelNone  = 0
)

// AccessLevel maps a role name to its hierarchical rank. Unknown role names
// rank at zero, below every named role.
func AccessLevel(roleName string) int {
	switch roleName {
	case RoleAdmin:
		return LevelAdmin
	case RoleStaff:
		return LevelStaff
	default:
		return LevelNone
	}
}

func IsAdmin(roleName string) bool { return roleName == RoleAdmin }
