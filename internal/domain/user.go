package domain

// Role enumerates dashboard roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleQC    Role = "qc"
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleQC, RoleStaff:
		return true
	}
	return false
}

// User is a dashboard account.
type User struct {
	ID           int64
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
}

// Actor is the authenticated caller handed to services.
type Actor struct {
	UserID int64
	Role   Role
}
