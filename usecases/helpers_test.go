package usecases

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"starter-server/confs"
	"starter-server/db"
	"starter-server/repositories"
	"starter-server/testutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stack struct {
	db  db.Database
	cfg *confs.Config

	users         repositories.UserRepository
	sessions      repositories.SessionRepository
	settings      repositories.SettingsRepository
	customers     repositories.CustomerRepository
	notifications repositories.NotificationRepository
	invoices      repositories.InvoiceRepository
	usage         repositories.UsageRepository
	uploads       repositories.UploadRepository
}

func newStack(t *testing.T) *stack {
	t.Helper()
	database := testutil.SetupTestDatabase(t)
	return &stack{
		db:            database,
		cfg:           testutil.GetTestConfig(t),
		users:         repositories.NewUserRepository(database),
		sessions:      repositories.NewSessionRepository(database),
		settings:      repositories.NewSettingsRepository(database),
		customers:     repositories.NewCustomerRepository(database),
		notifications: repositories.NewNotificationRepository(database),
		invoices:      repositories.NewInvoiceRepository(database),
		usage:         repositories.NewUsageRepository(database),
		uploads:       repositories.NewUploadRepository(database),
	}
}

func (s *stack) auth() *AuthUseCase {
	uc := NewAuthUseCase(s.users, s.sessions, s.settings, s.cfg.Auth)
	uc.bcryptCost = bcrypt.MinCost
	return uc
}

// fakeRecorder collects recorded usage.
type fakeRecorder struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (f *fakeRecorder) Record(userID, metric string, qty int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[userID+"/"+metric] += qty
}

func (f *fakeRecorder) get(userID, metric string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[userID+"/"+metric]
}

// fileHeader builds a multipart file header holding content.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var bg = context.Background()
