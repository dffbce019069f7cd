package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"starter-server/apiclient"
	"starter-server/entities"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore(t *testing.T) {
	store := &TokenStore{Path: filepath.Join(t.TempDir(), "nested", "token")}

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("abc"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.00", formatCents(0))
	assert.Equal(t, "$49.05", formatCents(4905))
	assert.Equal(t, "-$1.50", formatCents(-150))
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	write := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{
			"token": "tok-1",
			"user":  map[string]string{"id": "u1", "email": "ada@example.com", "role": "admin"},
		}})
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required", "code": "UNAUTHORIZED"})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{"data": map[string]string{
			"id": "u1", "name": "Ada", "email": "ada@example.com", "role": "admin", "status": "active",
		}})
	})
	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]interface{}{
			"data":  []map[string]string{{"id": "u1", "name": "Ada", "email": "ada@example.com", "role": "admin", "status": "active"}},
			"count": 1, "total": 1,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "starter-admin", SilenceUsage: true, SilenceErrors: true}
	require.NoError(t, Init(root))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommands_LoginWhoAmIUsers(t *testing.T) {
	srv := fakeAPI(t)
	tokenFile := filepath.Join(t.TempDir(), "token")
	common := []string{"--api-url", srv.URL, "--token-file", tokenFile}

	_, err := execute(t, append([]string{"whoami"}, common...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out, err := execute(t, append([]string{"login", "--email", "ada@example.com", "--password", "secret-pass"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ada@example.com (admin)")

	saved, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "tok-1\n", string(saved))

	out, err = execute(t, append([]string{"whoami"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada <ada@example.com>")

	out, err = execute(t, append([]string{"users", "list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "1 of 1")
}

type fakeSource struct {
	stats *entities.DashboardStats
	err   error
}

func (f fakeSource) DashboardStats(ctx context.Context) (*entities.DashboardStats, error) {
	return f.stats, f.err
}

func (f fakeSource) ListNotifications(ctx context.Context, unreadOnly bool, opts apiclient.ListOptions) (*apiclient.Page[entities.Notification], error) {
	return &apiclient.Page[entities.Notification]{Items: []entities.Notification{{Type: "info", Title: "Welcome"}}}, nil
}

func TestDashboardModel(t *testing.T) {
	src := fakeSource{stats: &entities.DashboardStats{TotalUsers: 3, ActiveUsers: 2, UnreadNotifications: 1, MonthlyRecurringRevenueCents: 990}}
	m := newDashboardModel(src)
	assert.Contains(t, m.View(), "Loading...")

	msg := m.load()()
	loaded, ok := msg.(dashboardLoadedMsg)
	require.True(t, ok)

	next, _ := m.Update(loaded)
	m = next.(dashboardModel)
	view := m.View()
	assert.Contains(t, view, "2 / 3")
	assert.Contains(t, view, "$9.90")
	assert.Contains(t, view, "Welcome")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(dashboardModel)
	assert.True(t, m.loading)
	assert.NotNil(t, cmd)

	next, _ = m.Update(errMsg{errors.New("boom")})
	m = next.(dashboardModel)
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "boom")

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, next.(dashboardModel).quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(dashboardModel).View())
}
