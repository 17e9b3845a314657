package domain

// Role names carried in the bearer token
const (
	RoleAdmin  = "ADMIN"
	RoleSeller = "SELLER"
)

// Session is the authenticated caller. Token is forwarded to the backend.
type Session struct {
	Subject string
	Roles   []string
	Token   string
}

// HasAnyRole reports whether the session holds at least one of roles
func (s Session) HasAnyRole(roles ...string) bool {
	for _, held := range s.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

// CanAnswer reports whether the session may answer questions
func (s Session) CanAnswer() bool {
	return s.HasAnyRole(RoleAdmin, RoleSeller)
}
