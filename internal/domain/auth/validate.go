package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "github.com/target/campus-auth/internal/errors"
	"golang.org/x/net/publicsuffix"
)

const maxEmailLength = 254

// emailPattern accepts a basic local@domain.tld shape; deliverability is the identity service's concern.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)

// Validator checks the structural validity of credentials before any request is issued.
// It does not enforce password strength.
type Validator struct {
	// AllowedDomain, when set, restricts emails to the same registrable domain
	// (e.g. "campus.edu" admits "x@campus.edu" and "x@cs.campus.edu").
	AllowedDomain string
}

// ValidateCredentials validates creds with no domain restriction.
func ValidateCredentials(creds Credentials) error {
	return Validator{}.Validate(creds)
}

// Validate returns a validation AppError naming the offending field, or nil.
func (v Validator) Validate(creds Credentials) error {
	email := strings.TrimSpace(creds.Email)
	if email == "" {
		return apperrors.ValidationField("email", "Email is required")
	}
	if utf8.RuneCountInString(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return apperrors.ValidationField("email", "Enter a valid email address")
	}
	if creds.Password == "" {
		return apperrors.ValidationField("password", "Password is required")
	}
	if v.AllowedDomain != "" && !sameRegistrableDomain(emailDomain(email), v.AllowedDomain) {
		return apperrors.ValidationField("email", "Use your institutional email address")
	}
	return nil
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func sameRegistrableDomain(domain, allowed string) bool {
	a := registrableDomain(domain)
	b := registrableDomain(strings.ToLower(strings.TrimSpace(allowed)))
	return a != "" && a == b
}

func registrableDomain(domain string) string {
	if domain == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return ""
	}
	return etld1
}
