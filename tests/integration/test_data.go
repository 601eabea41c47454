package integration

import (
	"fmt"
	"time"
)

// TestCredentials generates unique credentials using a timestamp so tests
// can run against a shared database without colliding.
func TestCredentials(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@school.test", ts, suffix)
	password = "TestPassword123!"
	return
}
