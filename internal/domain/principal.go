package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated identity behind a session. It is derived
// once from a verified token and never changes for the connection's lifetime.
type Principal struct {
	ID       string
	Nickname string
	Role     Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Session is the live binding between one connected client and one Principal.
// The transport layer owns the concrete session; the registry holds only
// non-owning references.
type Session interface {
	// ID is unique per connection.
	ID() string
	Principal() Principal
	// DisplayName is the nickname shown in rosters. It defaults to the
	// principal's nickname and may be overridden per connection.
	DisplayName() string
	// Deliver enqueues an event for the client without blocking. It reports
	// false when the session can no longer accept events.
	Deliver(msg ChatMessage) bool
}
