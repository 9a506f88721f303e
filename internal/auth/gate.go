// Package auth implements the access gate: a single configured credential
// pair guards the draft listing and dispatch entry points, with JWT session
// tokens issued on login as a convenience for the web client.
package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the configured admin credential pair, resolved once at
// startup. When PasswordHash is set it takes precedence over Password and is
// compared with bcrypt.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Check reports whether the supplied pair matches the configured credentials.
// The comparison structure is constant regardless of which part mismatches,
// so callers cannot distinguish a wrong username from a wrong password.
func (c Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	return userOK && passOK
}
