// Package testutil provides common helpers for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request whose body is the JSON encoding of payload.
// A nil payload produces a bodiless request; the content type is set either way.
func NewJSONRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload), "encode request payload")
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest serves req through handler and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals the recorded response body into target.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target), "decode response body")
}

// AssertErrorCode asserts the response carries the expected status and coded
// error body.
func AssertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	assert.Equal(t, wantStatus, rec.Code, "status code")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "decode error body")
	assert.Equal(t, wantCode, body["error"], "error code")
}
