package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ryde/internal/types"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	a := &Account{ID: types.NewID(), Role: types.RoleDriver}

	raw, exp, err := tokens.Issue(a)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, a.Principal(), claims.Principal())
	assert.NotEmpty(t, claims.ID)
}

func TestTokensExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	raw, _, err := tokens.Issue(&Account{ID: types.NewID(), Role: types.RoleRider})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokensRejectAlgNone(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	// {"alg":"none","typ":"JWT"}.{"role":"rider","sub":"65a1f0c2e4b0a1b2c3d4e5f6","iss":"ryde","exp":4102444800}.
	raw := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJyb2xlIjoicmlkZXIiLCJzdWIiOiI2NWExZjBjMmU0YjBhMWIyYzNkNGU1ZjYiLCJpc3MiOiJyeWRlIiwiZXhwIjo0MTAyNDQ0ODAwfQ."
	_, err := tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokensRejectBadRole(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, _, err := tokens.Issue(&Account{ID: types.NewID(), Role: "admin"})
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
