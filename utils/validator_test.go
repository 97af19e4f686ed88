package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructMessages(t *testing.T) {
	type signup struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
		Plan     string `validate:"omitempty,oneof=free premium"`
		Start    string `validate:"omitempty,datetime=2006-01-02"`
	}

	require.NoError(t, ValidateStruct(signup{Email: "a@b.co", Password: "12345678"}))

	err := ValidateStruct(signup{Email: "nope", Password: "short", Plan: "gold", Start: "10/01/2025"})
	require.Error(t, err)
	assert.Equal(t,
		"email must be a valid email, password must be at least 8, plan must be one of: free premium, start must be a date in 2006-01-02 format",
		err.Error())

	err = ValidateStruct(signup{})
	assert.EqualError(t, err, "email is required, password is required")
}

func TestGeneratedCodes(t *testing.T) {
	code, err := GenerateActivationCode()
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)

	access, err := GenerateAccessCode()
	require.NoError(t, err)
	assert.Len(t, access, AccessCodeLength)
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, access)
}
