package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestCredentialsCheckPlain(t *testing.T) {
	creds := Credentials{Username: "admin", Password: "s3cret"}

	if !creds.Check("admin", "s3cret") {
		t.Error("expected matching credentials to pass")
	}

	tests := []struct{ user, pass string }{
		{"admin", "wrong"},
		{"nobody", "s3cret"},
		{"", ""},
		{"admin", ""},
		{"", "s3cret"},
	}
	for _, tt := range tests {
		if creds.Check(tt.user, tt.pass) {
			t.Errorf("expected (%q, %q) to be rejected", tt.user, tt.pass)
		}
	}
}

func TestCredentialsCheckHashed(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	creds := Credentials{Username: "admin", PasswordHash: string(hash)}

	if !creds.Check("admin", "s3cret") {
		t.Error("expected hashed credentials to pass")
	}
	if creds.Check("admin", "wrong") {
		t.Error("expected wrong password to be rejected against hash")
	}
	// The hash takes precedence even when a plain password is also set.
	creds.Password = "other"
	if creds.Check("admin", "other") {
		t.Error("expected plain password to be ignored when a hash is configured")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("secret", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username 'admin', got %q", claims.Username)
	}
	if claims.ID == "" {
		t.Error("expected a unique JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", "admin", time.Hour)
	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", "admin", -time.Minute)
	if _, err := ValidateToken("secret", token); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}

func TestTokensHaveUniqueJTIs(t *testing.T) {
	t1, _ := GenerateToken("secret", "admin", time.Hour)
	t2, _ := GenerateToken("secret", "admin", time.Hour)

	c1, _ := ValidateToken("secret", t1)
	c2, _ := ValidateToken("secret", t2)
	if c1.ID == c2.ID {
		t.Error("expected distinct JTIs for separate tokens")
	}
}
