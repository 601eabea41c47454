package models

import "time"

// Session is the server-side half of the session guard: an opaque token
// handed to the browser, stored here as a SHA-256 hash. A session binds at
// most one user; a request presenting no valid token is unauthenticated.
type Session struct {
	ID        string
	TokenHash string
	UserID    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
