package utils

import (
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTripCarriesIdentity(t *testing.T) {
	SetSecret("test-secret")
	avatar := "https://cdn.example.com/a.png"

	token, err := GenerateToken(models.Identity{
		UserID: "5b7c1f0e-5c1a-4a55-9d7e-0c4b8f1f2a10",
		Name:   "Ana",
		Email:  "Ana@Example.com",
		Avatar: &avatar,
	}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)

	id := claims.Identity()
	assert.Equal(t, "5b7c1f0e-5c1a-4a55-9d7e-0c4b8f1f2a10", id.UserID)
	assert.Equal(t, "Ana", id.Name)
	assert.Equal(t, "ana@example.com", id.Email)
	require.NotNil(t, id.Avatar)
	assert.Equal(t, avatar, *id.Avatar)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("one")
	token, err := GenerateToken(models.Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	SetSecret("two")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	SetSecret("test-secret")
	token, err := GenerateToken(models.Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Friday Movie Club": "friday-movie-club",
		"Café Noir":         "cafe-noir",
		"***":               "untitled",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
