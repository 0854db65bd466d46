package shortener

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier compares a plaintext password with a stored hash.
// It returns ErrPasswordInvalid on mismatch.
type PasswordVerifier func(hash, password string) error

// HashPassword creates a bcrypt hash of a link password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}

	return string(hashed), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordInvalid
		}

		return fmt.Errorf("could not verify password: %w", err)
	}

	return nil
}
