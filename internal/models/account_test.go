package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

func fieldNames(t *testing.T, name, email, password string) []string {
	t.Helper()
	var names []string
	for _, f := range models.ValidateAccount(name, email, password) {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		name       string
		inName     string
		inEmail    string
		inPassword string
		wantFields []string
	}{
		{name: "valid", inName: "Alice", inEmail: "alice@example.com", inPassword: "password123"},
		{name: "email normalised before check", inName: "Alice", inEmail: "  Alice@Example.COM ", inPassword: "password123"},
		{name: "name too short", inName: "Al", inEmail: "alice@example.com", inPassword: "password123", wantFields: []string{"name"}},
		{name: "name too long", inName: strings.Repeat("a", 51), inEmail: "alice@example.com", inPassword: "password123", wantFields: []string{"name"}},
		{name: "name multibyte within limit", inName: "Жанна", inEmail: "zh@example.com", inPassword: "password123"},
		{name: "bad email", inName: "Alice", inEmail: "not-an-email", inPassword: "password123", wantFields: []string{"email"}},
		{name: "email without tld", inName: "Alice", inEmail: "alice@localhost", inPassword: "password123", wantFields: []string{"email"}},
		{name: "password too short", inName: "Alice", inEmail: "alice@example.com", inPassword: "short", wantFields: []string{"password"}},
		{name: "password too long", inName: "Alice", inEmail: "alice@example.com", inPassword: strings.Repeat("p", 73), wantFields: []string{"password"}},
		{name: "everything blank", wantFields: []string{"email", "name", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantFields, fieldNames(t, tt.inName, tt.inEmail, tt.inPassword))
		})
	}
}

func TestNewSignUpInput_Normalises(t *testing.T) {
	in := models.NewSignUpInput("  Bob  ", " BOB@Mail.Com ", " secret pass ")

	assert.Equal(t, "Bob", in.Name)
	assert.Equal(t, "bob@mail.com", in.Email)
	assert.Equal(t, " secret pass ", in.Password)
}

func TestAccount_Redacted(t *testing.T) {
	acc := models.Account{ID: "1", Name: "Alice", Email: "alice@example.com", PasswordHash: "$2a$10$hash"}

	red := acc.Redacted()

	assert.Empty(t, red.PasswordHash)
	assert.Equal(t, "$2a$10$hash", acc.PasswordHash)
	assert.Equal(t, acc.Email, red.Email)
}

func TestFieldErrors_Nil(t *testing.T) {
	require.Nil(t, models.FieldErrors(nil))
}
