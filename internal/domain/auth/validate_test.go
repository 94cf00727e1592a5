package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/campus-auth/internal/errors"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		field string
	}{
		{name: "valid", creds: Credentials{Email: "admin@campus.edu", Password: "admin123"}},
		{name: "subdomain", creds: Credentials{Email: "t.smith@cs.campus.edu", Password: "x"}},
		{name: "empty email", creds: Credentials{Password: "x"}, field: "email"},
		{name: "whitespace email", creds: Credentials{Email: "   ", Password: "x"}, field: "email"},
		{name: "missing at", creds: Credentials{Email: "admin.campus.edu", Password: "x"}, field: "email"},
		{name: "two ats", creds: Credentials{Email: "a@b@campus.edu", Password: "x"}, field: "email"},
		{name: "no tld", creds: Credentials{Email: "admin@campus", Password: "x"}, field: "email"},
		{name: "space inside", creds: Credentials{Email: "ad min@campus.edu", Password: "x"}, field: "email"},
		{name: "empty label", creds: Credentials{Email: "admin@campus..edu", Password: "x"}, field: "email"},
		{name: "empty password", creds: Credentials{Email: "admin@campus.edu"}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.creds)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestValidator_AllowedDomain(t *testing.T) {
	v := Validator{AllowedDomain: "campus.edu"}

	assert.NoError(t, v.Validate(Credentials{Email: "dean@campus.edu", Password: "x"}))
	assert.NoError(t, v.Validate(Credentials{Email: "dean@Library.Campus.edu", Password: "x"}))

	err := v.Validate(Credentials{Email: "dean@gmail.com", Password: "x"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "email", apperrors.GetField(err))

	err = v.Validate(Credentials{Email: "dean@campus.edu.evil.com", Password: "x"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestValidator_DoesNotCheckStrength(t *testing.T) {
	assert.NoError(t, ValidateCredentials(Credentials{Email: "x@campus.edu", Password: "a"}))
}
