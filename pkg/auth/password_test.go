package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword_Success(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-7")

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Correct-Horse-7", hash)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")

	assert.Error(t, err)
}

func TestComparePassword_Match(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-7")
	assert.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "Correct-Horse-7"))
}

func TestComparePassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-7")
	assert.NoError(t, err)

	assert.Error(t, ComparePassword(hash, "wrong-password"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Sturdy-Pass-99", false},
		{"too short", "Ab1", true},
		{"no uppercase", "lowercase-only-1", true},
		{"no lowercase", "UPPERCASE-ONLY-1", true},
		{"no digit", "No-Digits-Here", true},
		{"common password", "password", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
