package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Envelope mirrors the JSON response envelope of the API.
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Count *int            `json:"count"`
	Total *int64          `json:"total"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// DoJSON sends a request with an optional JSON body and bearer token to h.
func DoJSON(t *testing.T, h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope decodes the response envelope and, when target is set, its data field.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, target interface{}) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}
