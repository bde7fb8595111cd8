package auth_test

import (
	"testing"
	"time"

	"cropdoc/internal/auth"
	"cropdoc/internal/config"
	"cropdoc/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(lifetime time.Duration) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret-not-for-production",
			TokenLifetime: lifetime,
		},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	service := auth.NewService(testConfig(2 * time.Hour))
	user := &models.User{
		ID:    uuid.New(),
		Email: "farmer@example.com",
		Role:  models.RoleFarmer,
	}

	token, err := service.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, models.RoleFarmer, claims.Role)

	issued := claims.IssuedAt.Time
	expires := claims.ExpiresAt.Time
	assert.InDelta(t, (2 * time.Hour).Seconds(), expires.Sub(issued).Seconds(), 2)
}

func TestExpiredTokenRejected(t *testing.T) {
	service := auth.NewService(testConfig(-time.Minute))
	user := &models.User{ID: uuid.New(), Role: models.RoleFarmer}

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	issuerService := auth.NewService(&config.Config{
		Auth: config.AuthConfig{JWTSecret: "other-secret", TokenLifetime: time.Hour},
	})
	user := &models.User{ID: uuid.New(), Role: models.RoleFarmer}

	token, err := issuerService.GenerateToken(user)
	require.NoError(t, err)

	service := auth.NewService(testConfig(time.Hour))
	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	service := auth.NewService(testConfig(time.Hour))

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := service.ValidateToken(token)
		assert.Error(t, err, "token %q should be rejected", token)
	}
}
