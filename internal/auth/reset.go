package auth

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Password reset tokens are stateless JWTs signed with a per-user key derived
// from the current password hash. Changing the password changes the key, so
// a token can only ever be redeemed once.

// ResetClaims carries the reset token payload
type ResetClaims struct {
	jwt.RegisteredClaims
}

func resetSigningKey(userID, passwordHash string) []byte {
	sum := sha256.Sum256([]byte(userID + ":" + passwordHash))
	return sum[:]
}

// GenerateResetToken issues a reset token for the user
func GenerateResetToken(userID, passwordHash string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(resetSigningKey(userID, passwordHash))
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// ValidateResetToken verifies a reset token against the user's current
// password hash and returns an error if it is expired, forged, or was issued
// before a password change.
func ValidateResetToken(tokenString, userID, passwordHash string) error {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return resetSigningKey(userID, passwordHash), nil
	})
	if err != nil {
		return fmt.Errorf("invalid reset token: %w", err)
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid reset token")
	}
	if claims.Subject != userID {
		return fmt.Errorf("reset token subject mismatch")
	}

	return nil
}
