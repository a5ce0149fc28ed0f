package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewboard/crewboard-backend/pkg/i18n"
)

func TestNotFound_LocalizesResource(t *testing.T) {
	err := NotFound("task")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "Task not found", err.Message)
	assert.True(t, IsNotFound(err))

	ctx := i18n.WithLocale(context.Background(), i18n.LocaleSpanish)
	assert.Equal(t, "Tarea no encontrado", err.Localize(ctx))
}

func TestNotFound_UnknownResourceKeepsName(t *testing.T) {
	assert.Equal(t, "gizmo not found", NotFound("gizmo").Message)
}

func TestAsAppError(t *testing.T) {
	conflict := Conflict("worker already assigned")
	wrapped := fmt.Errorf("create assignment: %w", conflict)

	assert.Same(t, conflict, AsAppError(wrapped))

	plain := AsAppError(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.StatusCode)
	assert.ErrorContains(t, plain, "boom")
}

func TestConstructorsStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, Forbidden("no").StatusCode)
	assert.Equal(t, http.StatusForbidden, RowSecurity().StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, TooManyRequests().StatusCode)
	assert.Equal(t, http.StatusGone, InvitationInvalid().StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", Validation(map[string]string{"name": "required"}).Code)
	assert.True(t, Is(TokenExpired(), ErrTokenExpired))
}
