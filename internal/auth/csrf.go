package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// csrfTokenEntry stores token metadata
type csrfTokenEntry struct {
	sessionID string
	expiry    time.Time
}

// CSRFTokenManager handles CSRF token generation and validation. Tokens are
// bound to a session; rotating a session's token invalidates the old one, so
// login and logout each leave exactly one live token (or none) per session.
type CSRFTokenManager struct {
	validTokens map[string]*csrfTokenEntry // token -> entry (sessionID + expiry)
	bySession   map[string]string          // sessionID -> current token
	mu          sync.RWMutex
	tokenTTL    time.Duration
}

// NewCSRFTokenManager creates a new CSRF token manager
func NewCSRFTokenManager(tokenTTL time.Duration) *CSRFTokenManager {
	manager := &CSRFTokenManager{
		validTokens: make(map[string]*csrfTokenEntry),
		bySession:   make(map[string]string),
		tokenTTL:    tokenTTL,
	}

	go manager.cleanupExpiredTokens()

	return manager
}

// RotateToken issues a new CSRF token for a session, revoking any prior one.
// Called on login (fresh session) and after any session teardown/re-issue.
func (m *CSRFTokenManager) RotateToken(sessionID string) (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(randomBytes)

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.bySession[sessionID]; ok {
		delete(m.validTokens, old)
	}

	m.validTokens[token] = &csrfTokenEntry{
		sessionID: sessionID,
		expiry:    time.Now().Add(m.tokenTTL),
	}
	m.bySession[sessionID] = token

	return token, nil
}

// ValidateToken checks if a CSRF token is valid and belongs to the session
func (m *CSRFTokenManager) ValidateToken(token, sessionID string) bool {
	m.mu.RLock()
	entry, exists := m.validTokens[token]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	if entry.sessionID != sessionID {
		return false
	}

	if time.Now().After(entry.expiry) {
		m.mu.Lock()
		delete(m.validTokens, token)
		delete(m.bySession, sessionID)
		m.mu.Unlock()
		return false
	}

	return true
}

// RevokeSession invalidates any CSRF token held by a session. Part of the
// logout unit: the session row and its CSRF token go together.
func (m *CSRFTokenManager) RevokeSession(sessionID string) {
	m.mu.Lock()
	if token, ok := m.bySession[sessionID]; ok {
		delete(m.validTokens, token)
		delete(m.bySession, sessionID)
	}
	m.mu.Unlock()
}

// cleanupExpiredTokens periodically removes expired tokens
func (m *CSRFTokenManager) cleanupExpiredTokens() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := time.Now()
		for token, entry := range m.validTokens {
			if now.After(entry.expiry) {
				delete(m.validTokens, token)
				delete(m.bySession, entry.sessionID)
			}
		}
		m.mu.Unlock()
	}
}
