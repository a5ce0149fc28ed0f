package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// NewHTTPRequest creates a new HTTP request for testing handlers
func NewHTTPRequest(method, path string, body interface{}) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			bodyReader = bytes.NewBufferString(raw)
		} else {
			jsonBody, _ := json.Marshal(body)
			bodyReader = bytes.NewBuffer(jsonBody)
		}
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// AsActor attaches a as the authenticated caller, as the auth middleware does
func AsActor(req *http.Request, a *actor.Actor) *http.Request {
	ctx := actor.WithActor(req.Context(), a)
	ctx = tenant.WithOrganization(ctx, a.OrganizationID)
	return req.WithContext(ctx)
}

// ExecuteRequest executes an HTTP request and returns the response recorder
func ExecuteRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertStatus asserts the response status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code. Body: %s", rr.Body.String())
}

// Envelope mirrors the API response shape for decoding in tests
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// ParseEnvelope decodes the response envelope and, when target is non-nil,
// its data field.
func ParseEnvelope(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) *Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "body: %s", rr.Body.String())
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target), "data: %s", string(env.Data))
	}
	return &env
}

// ActorContext returns a background context carrying a
func ActorContext(a *actor.Actor) context.Context {
	return actor.WithActor(context.Background(), a)
}

// SkipIfShort skips the test if running with -short flag
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
