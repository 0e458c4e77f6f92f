// Package identity carries the already-authenticated caller into usecases.
package identity

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Caller struct {
	ID    string
	Role  string
	Email string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
