// Package identifier classifies the login identifier a user typed and maps
// it to the credential identifier used for authentication.
//
// Classification rules:
//   - email: contains both "@" and "."
//   - phone: non-empty and entirely decimal digits
//
// Anything else is rejected. Phone identifiers are mapped to a synthetic
// email credential by appending a fixed, non-user-facing domain suffix, so
// the identity store only ever deals in email-shaped credentials.
package identifier

import (
	"errors"
	"strings"

	"github.com/easywish/launchpad/internal/app/system/normalize"
)

// Classification of a login identifier.
type Classification string

const (
	Email Classification = "email"
	Phone Classification = "phone"
)

// DefaultPhoneDomain is the synthetic domain appended to numeric identifiers
// to form a credential identifier. It is never shown to users.
const DefaultPhoneDomain = "@phone.facebook.login"

// ErrUnrecognized is returned when the input is neither an email address
// nor an all-digit number.
var ErrUnrecognized = errors.New("identifier is not a valid email address or numeric identifier")

// Classifier maps raw identifiers to credential identifiers.
// The zero value is not usable; construct with New.
type Classifier struct {
	phoneDomain string
}

// New creates a Classifier. An empty phoneDomain falls back to
// DefaultPhoneDomain.
func New(phoneDomain string) *Classifier {
	if phoneDomain == "" {
		phoneDomain = DefaultPhoneDomain
	}
	return &Classifier{phoneDomain: phoneDomain}
}

// Classify inspects the raw identifier and returns its classification along
// with the credential identifier to authenticate with. Email inputs are
// lowercased; phone inputs get the synthetic domain suffix appended.
// Returns ErrUnrecognized for anything that is neither.
func (c *Classifier) Classify(raw string) (Classification, string, error) {
	raw = normalize.Identifier(raw)
	if raw == "" {
		return "", "", ErrUnrecognized
	}

	if strings.Contains(raw, "@") && strings.Contains(raw, ".") {
		return Email, normalize.Email(raw), nil
	}

	if isAllDigits(raw) {
		return Phone, raw + c.phoneDomain, nil
	}

	return "", "", ErrUnrecognized
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
