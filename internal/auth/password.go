// Package auth hashes and checks the passwords of the development backend's
// accounts with bcrypt.
//
// The hash string carries its own salt and cost, so it is stored as-is in the
// users table and nothing else is needed to verify it later.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used by the backend.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer passwords would be
// truncated silently, so they are rejected.
const maxPasswordBytes = 72

var (
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")
	ErrWrongPassword   = errors.New("auth: wrong password")
)

type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultCost}
}

// NewPasswordServiceWithCost is for tests, which use bcrypt.MinCost to stay
// fast.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil if plaintext matches hash and ErrWrongPassword if it
// does not. A malformed hash is reported as a plain error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrWrongPassword
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
