package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", LocaleEnglish},
		{"es", LocaleSpanish},
		{"es-MX,es;q=0.9,en;q=0.8", LocaleSpanish},
		{"en-US,es;q=0.5", LocaleEnglish},
		{"fr-FR,es;q=0.4", LocaleSpanish},
		{"de-DE", LocaleEnglish},
		{"es;q=0", LocaleEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestLocalizer_T(t *testing.T) {
	assert.Equal(t, "Task no encontrado", NewLocalizer(LocaleSpanish).T("errors.not_found", map[string]string{"resource": "Task"}))
	assert.Equal(t, "Worker not found", T("errors.not_found", map[string]string{"resource": "Worker"}))
	assert.Equal(t, "missing.key", T("missing.key"))
	assert.Equal(t, LocaleEnglish, NewLocalizer("pt").GetLocale())
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "es-US")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, LocaleSpanish, got)
	assert.Equal(t, LocaleSpanish, rec.Header().Get("Content-Language"))
	assert.Equal(t, DefaultLocale, GetLocaleFromContext(context.Background()))
}
