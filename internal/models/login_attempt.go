package models

import "time"

// AttemptStatus is the lifecycle state of a login attempt row. Every row is
// created as pending and mutated at most once, by the request that created it.
type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "pending"
	AttemptSuccessful AttemptStatus = "successful"
	AttemptFailed     AttemptStatus = "failed"
)

// DeviceMeta carries the free-text request metadata recorded alongside an
// attempt. Values come straight from the User-Agent header and are not
// validated.
type DeviceMeta struct {
	Device   string
	Platform string
	Browser  string
}

// LoginAttempt represents one submitted login form post.
type LoginAttempt struct {
	ID        string        `db:"id"`
	Email     string        `db:"email"` // raw user input, not necessarily a valid address
	IPAddress string        `db:"ip_address"`
	Status    AttemptStatus `db:"status"`
	Device    string        `db:"device"`
	Platform  string        `db:"platform"`
	Browser   string        `db:"browser"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
