// Package testutil holds helpers shared by handler, store, and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "talentkyc/pkg/domain-errors"
)

// ErrorBody mirrors the JSON error envelope written by httputil.WriteError.
type ErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewJSONRequest builds a request carrying body as JSON. A nil body yields an
// empty request body with the JSON content type still set.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body), "encode request body")
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest serves req through h and returns the recorder.
func DoRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the recorded body into T. The recorder body is
// read without being drained, so several assertions can inspect it.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "decode response: %s", rr.Body.String())
	return &out
}

func UnmarshalErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	return *UnmarshalResponse[ErrorBody](t, rr)
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rr.Code, "status code; body: %s", rr.Body.String())
}

// AssertStatusAndError checks the status and the domain code in the error
// envelope.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode dErrors.Code) {
	t.Helper()
	AssertStatus(t, rr, wantStatus)
	assert.Equal(t, string(wantCode), UnmarshalErrorResponse(t, rr).Error, "error code")
}

// AssertJSONContains checks one top-level field of the JSON body.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, want any) {
	t.Helper()
	fields := *UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, want, fields[key], "field %q", key)
}

func AssertErrorDescriptionContains(t *testing.T, rr *httptest.ResponseRecorder, substr string) {
	t.Helper()
	assert.Contains(t, UnmarshalErrorResponse(t, rr).ErrorDescription, substr)
}
