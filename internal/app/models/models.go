package models

// Role defines the user role
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleFaculty Role = "FACULTY"
	RoleAlumni  Role = "ALUMNI"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleAlumni:
		return true
	}
	return false
}

// RequiresVerification reports whether accounts with this role go through
// admin verification.
func (r Role) RequiresVerification() bool {
	return r == RoleAlumni || r == RoleFaculty
}
