package domain

import "time"

// Event is one audit trail row. Metadata is free-form key/value context
// stored as JSON.
type Event struct {
	ID        string
	Username  string
	Action    string
	Resource  string
	IP        string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Actions recorded by the auth core.
const (
	ActionRegister      = "REGISTER"
	ActionLogin         = "LOGIN"
	ActionLogout        = "LOGOUT"
	ActionLogoutAll     = "LOGOUT_ALL"
	ActionRefresh       = "REFRESH"
	ActionRevokeSession = "REVOKE_SESSION"
)
