package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

func newTestManager() *Manager {
	return NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "crewboard",
	})
}

func testActor() *actor.Actor {
	return &actor.Actor{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          "ana@example.test",
		FirstName:      "Ana",
		LastName:       "Ruiz",
		BaseRole:       actor.RoleForeman,
	}
}

func TestManager_RoundTrip(t *testing.T) {
	m := newTestManager()
	a := testActor()

	pair, err := m.GenerateTokenPair(a)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	got, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, a, got)

	refresh, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID.String(), refresh.UserID)
}

func TestManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	m := newTestManager()
	pair, err := m.GenerateTokenPair(testActor())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.Equal(t, "TOKEN_INVALID", errors.AsAppError(err).Code)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.Equal(t, "TOKEN_INVALID", errors.AsAppError(err).Code)
}

func TestManager_Rejects(t *testing.T) {
	m := newTestManager()
	pair, err := m.GenerateTokenPair(testActor())
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		late := newTestManager()
		late.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := late.ValidateAccessToken(pair.AccessToken)
		require.Error(t, err)
		assert.Equal(t, "TOKEN_EXPIRED", errors.AsAppError(err).Code)
		assert.Equal(t, http.StatusUnauthorized, errors.AsAppError(err).StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager(&config.JWTConfig{Secret: "other", AccessExpiry: time.Minute, Issuer: "crewboard"})
		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.Equal(t, "TOKEN_INVALID", errors.AsAppError(err).Code)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute, Issuer: "someone-else"})
		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.Equal(t, "TOKEN_INVALID", errors.AsAppError(err).Code)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateAccessToken("not.a.token")
		assert.Equal(t, "TOKEN_INVALID", errors.AsAppError(err).Code)
	})
}
