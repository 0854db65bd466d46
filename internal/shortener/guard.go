package shortener

import (
	"errors"
	"time"
)

// AccessState is the outcome of evaluating a link for a redirect.
type AccessState int

const (
	AccessValid AccessState = iota
	AccessExpired
	AccessPasswordRequired
	AccessPasswordInvalid
)

func (s AccessState) String() string {
	switch s {
	case AccessValid:
		return "valid"
	case AccessExpired:
		return "expired"
	case AccessPasswordRequired:
		return "password_required"
	case AccessPasswordInvalid:
		return "password_invalid"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for a rejecting state, or nil for AccessValid.
func (s AccessState) Err() error {
	switch s {
	case AccessExpired:
		return ErrLinkExpired
	case AccessPasswordRequired:
		return ErrPasswordRequired
	case AccessPasswordInvalid:
		return ErrPasswordInvalid
	default:
		return nil
	}
}

// Clock returns the current time.
type Clock func() time.Time

// AccessGuard decides whether a resolved link may be followed.
type AccessGuard struct {
	now    Clock
	verify PasswordVerifier
}

// NewAccessGuard creates a guard using bcrypt verification. A nil clock uses time.Now.
func NewAccessGuard(now Clock) *AccessGuard {
	if now == nil {
		now = time.Now
	}

	return &AccessGuard{now: now, verify: VerifyPassword}
}

// Evaluate checks expiry first, then the password. An empty password means
// none was supplied. The returned error is non-nil only when the stored hash
// could not be checked at all.
func (g *AccessGuard) Evaluate(link *Link, password string) (AccessState, error) {
	if link.ExpiredAt(g.now()) {
		return AccessExpired, nil
	}

	if !link.RequiresPassword() {
		return AccessValid, nil
	}

	if password == "" {
		return AccessPasswordRequired, nil
	}

	if err := g.verify(link.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordInvalid) {
			return AccessPasswordInvalid, nil
		}

		return AccessPasswordInvalid, err
	}

	return AccessValid, nil
}
