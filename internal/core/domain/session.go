package domain

import "time"

// SessionClaims is the identity payload carried by a session token.
//
// SessionID is fixed when the session starts (registration or login) and is
// preserved across every sliding re-issue, so it names the whole session.
type SessionClaims struct {
	SessionID string
	UserID    string
	Email     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ClaimsFor builds the claims for a new session owned by u.
func ClaimsFor(u *User, sessionID string) SessionClaims {
	return SessionClaims{
		SessionID: sessionID,
		UserID:    u.ID,
		Email:     u.Email,
		Username:  u.Username,
	}
}
