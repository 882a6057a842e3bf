package models

import "strings"

// Role is the account type of a user.
type Role string

const (
	RoleCreator Role = "creator"
	RoleLearner Role = "learner"
)

// LocalAuthToken marks sessions established by the local account registry. It never authenticates with the backend.
const LocalAuthToken = "local-auth"

// ParseRole normalizes s into a [Role]. ok is false for anything other than creator or learner.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCreator:
		return RoleCreator, true
	case RoleLearner:
		return RoleLearner, true
	default:
		return "", false
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleLearner
}

// Session is the identity the client acts as.
//
// A session is either logged out (every field empty) or logged in (every field set).
type Session struct {
	Token  string
	UserID string
	Role   Role
	Name   string
}

// LoggedIn reports whether every field is populated.
func (s Session) LoggedIn() bool {
	return s.Token != "" && s.UserID != "" && s.Role != "" && s.Name != ""
}

// LoggedOut reports whether every field is empty.
func (s Session) LoggedOut() bool {
	return s == Session{}
}

// Partial reports whether some but not all fields are populated.
func (s Session) Partial() bool {
	return !s.LoggedIn() && !s.LoggedOut()
}

// IsLocal reports whether the session came from the local account registry.
func (s Session) IsLocal() bool {
	return s.Token == LocalAuthToken
}

// BackendToken returns the bearer token for backend calls, or "" for logged out and local sessions.
func (s Session) BackendToken() string {
	if !s.LoggedIn() || s.IsLocal() {
		return ""
	}
	return s.Token
}

// LocalAccount is a credential record that exists only in local storage.
type LocalAccount struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
}
