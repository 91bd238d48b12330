package security_test

import (
	"errors"
	"testing"

	"github.com/peopleops/hrhub/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("Sup3rSecret")

	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if hash == "Sup3rSecret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "Sup3rSecret"); err != nil {
		t.Fatalf("CheckPassword with correct password: %v", err)
	}

	if err := security.CheckPassword(hash, "wrongpassword"); err == nil {
		t.Fatal("CheckPassword accepted a wrong password")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Abcdef12", nil},
		{"too short", "Ab1x", security.ErrPasswordTooShort},
		{"no lowercase", "ABCDEF12", security.ErrPasswordNoLower},
		{"no uppercase", "abcdef12", security.ErrPasswordNoUpper},
		{"no digit", "Abcdefgh", security.ErrPasswordNoDigit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := security.ValidatePassword(tc.password)

			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}
