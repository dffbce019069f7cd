package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"starter-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) Env {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
		err  string
	}{
		{name: "local default", env: nil, want: "http://localhost:3536/api/v1"},
		{name: "local port", env: map[string]string{"PORT": "8080"}, want: "http://localhost:8080/api/v1"},
		{name: "explicit wins", env: map[string]string{"API_BASE_URL": "https://api.example.com/", "APP_ENV": "production"}, want: "https://api.example.com/api/v1"},
		{name: "prefix kept", env: map[string]string{"API_BASE_URL": "http://api:3536/api/v1/"}, want: "http://api:3536/api/v1"},
		{name: "production public", env: map[string]string{"APP_ENV": "production", "API_PUBLIC_URL": "https://app.example.com", "API_INTERNAL_URL": "http://api:3536"}, want: "https://app.example.com/api/v1"},
		{name: "production without public url", env: map[string]string{"APP_ENV": "production"}, err: "API_PUBLIC_URL"},
		{name: "internal", env: map[string]string{"API_INTERNAL_URL": "http://api:3536"}, want: "http://api:3536/api/v1"},
		{name: "relative rejected", env: map[string]string{"API_BASE_URL": "/api"}, err: "absolute http(s) URL"},
		{name: "scheme rejected", env: map[string]string{"API_BASE_URL": "ftp://files.example.com"}, err: "absolute http(s) URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBaseURL(envMap(tt.env))
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestAPI(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret-pass" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password", "code": "UNAUTHORIZED"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{
			"token": "tok-123",
			"user":  map[string]string{"id": "u1", "email": body["email"], "role": "admin"},
		}})
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required", "code": "UNAUTHORIZED"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]string{"id": "u1", "name": "Ada"}})
	})
	mux.HandleFunc("/api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]string{"status": "logged_out"}})
	})
	mux.HandleFunc("/api/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":  []map[string]string{{"id": "c1", "name": "Acme"}},
			"count": 1,
			"total": 12,
		})
	})
	mux.HandleFunc("/api/v1/uploads", func(w http.ResponseWriter, r *http.Request) {
		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": map[string]interface{}{
			"id": "up1", "original_name": fh.Filename, "size": len(b), "content_type": "text/plain",
		}})
	})
	mux.HandleFunc("/api/v1/reports/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="users-20260101.csv"`)
		w.Header().Set("X-Report-Rows", "1")
		w.Header().Set("X-Report-Truncated", "false")
		_, _ = io.WriteString(w, "id,email\nu1,ada@example.com\n")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", WithTimeout(5*time.Second)), srv
}

func TestClient_LoginStoresToken(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	_, err := c.Me(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	res, err := c.Login(ctx, "ada@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", res.Token)
	assert.Equal(t, entities.RoleAdmin, res.User.Role)
	assert.Equal(t, "tok-123", c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestAPI(t)

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "invalid email or password", apiErr.Message)
	assert.Empty(t, c.Token())
}

func TestClient_ListCustomers(t *testing.T) {
	c, _ := newTestAPI(t)

	page, err := c.ListCustomers(context.Background(), ListOptions{Search: "acme", Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Acme", page.Items[0].Name)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, int64(12), page.Total)
}

func TestClient_UploadAndReport(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	up, err := c.UploadFile(ctx, "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", up.OriginalName)
	assert.Equal(t, int64(5), up.Size)

	report, err := c.DownloadReport(ctx, "users", "csv")
	require.NoError(t, err)
	assert.Equal(t, "users-20260101.csv", report.Filename)
	assert.Equal(t, 1, report.Rows)
	assert.False(t, report.Truncated)
	assert.Equal(t, "id,email\nu1,ada@example.com\n", string(report.Data))
}

func TestClient_TransportError(t *testing.T) {
	c, srv := newTestAPI(t)
	srv.Close()

	_, err := c.Me(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
