// Package auth verifies the shared access code and PIN and manages the
// signed session cookie.
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers every login failure. Callers must not
// distinguish a wrong access code from a wrong PIN.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Verifier struct {
	accessCode []byte
	pinHash    []byte
}

func NewVerifier(accessCode, pinHash string) *Verifier {
	return &Verifier{
		accessCode: []byte(accessCode),
		pinHash:    []byte(pinHash),
	}
}

// Verify checks both factors and always evaluates both, so response timing
// does not reveal which one failed.
func (v *Verifier) Verify(accessCode, pin string) error {
	codeOK := subtle.ConstantTimeCompare(v.accessCode, []byte(accessCode)) == 1
	pinErr := bcrypt.CompareHashAndPassword(v.pinHash, []byte(pin))

	if !codeOK || pinErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPIN produces a bcrypt hash suitable for the PIN_HASH setting.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
