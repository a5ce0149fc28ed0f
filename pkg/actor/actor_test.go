package actor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	a := &Actor{ID: uuid.New(), OrganizationID: uuid.New(), FirstName: "Rosa", LastName: "Diaz", Email: "rosa@example.com", BaseRole: RoleForeman}

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	got, ok := FromContext(WithActor(context.Background(), a))
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, "Rosa Diaz (rosa@example.com)", got.String())
	assert.False(t, got.IsAdmin())
	assert.Equal(t, a.ID, *got.IDOrNil())
}

func TestSystemActor(t *testing.T) {
	sys := SystemActor()

	assert.True(t, sys.IsSystem())
	assert.Nil(t, sys.IDOrNil())
	assert.Equal(t, "system", sys.String())

	var nilActor *Actor
	assert.True(t, nilActor.IsSystem())
	assert.Equal(t, "", nilActor.FullName())
}
