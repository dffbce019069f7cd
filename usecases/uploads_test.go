package usecases

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadUseCase_Upload(t *testing.T) {
	s := newStack(t)
	owner := testutil.CreateTestUser(t, s.db, "owner@example.com", entities.RoleMember)
	rec := &fakeRecorder{}
	uc := NewUploadUseCase(s.uploads, s.users, s.cfg.Upload, rec)

	// The client name claims pdf; the bytes are png.
	up, err := uc.Upload(bg, owner.ID, fileHeader(t, "../../etc/report.pdf", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, "report.pdf", up.OriginalName)
	assert.Equal(t, up.ID+".png", up.StoredName)
	assert.Equal(t, int64(len(pngBytes)), up.Size)
	assert.Equal(t, int64(1), rec.get(owner.ID, entities.MetricUploads))

	stored, err := os.ReadFile(filepath.Join(s.cfg.Upload.Dir, up.StoredName))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	txt, err := uc.Upload(bg, owner.ID, fileHeader(t, "notes.txt", []byte("plain text notes\n")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", txt.ContentType)
}

func TestUploadUseCase_Rejects(t *testing.T) {
	s := newStack(t)
	owner := testutil.CreateTestUser(t, s.db, "owner@example.com", entities.RoleMember)
	uc := NewUploadUseCase(s.uploads, s.users, s.cfg.Upload, nil)

	zip := append([]byte("PK\x03\x04"), make([]byte, 64)...)
	_, err := uc.Upload(bg, owner.ID, fileHeader(t, "image.png", zip))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnsupportedMedia, apperrors.From(err).Code)

	big := []byte(strings.Repeat("a", int(s.cfg.Upload.MaxBytes)+1))
	_, err = uc.Upload(bg, owner.ID, fileHeader(t, "big.txt", big))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePayloadTooLarge, apperrors.From(err).Code)

	_, err = uc.Upload(bg, owner.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	entries, err := os.ReadDir(s.cfg.Upload.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected files are not stored")
}

func TestUploadUseCase_Access(t *testing.T) {
	s := newStack(t)
	owner := testutil.CreateTestUser(t, s.db, "owner@example.com", entities.RoleMember)
	other := testutil.CreateTestUser(t, s.db, "other@example.com", entities.RoleMember)
	admin := testutil.CreateTestUser(t, s.db, "admin@example.com", entities.RoleAdmin)
	uc := NewUploadUseCase(s.uploads, s.users, s.cfg.Upload, nil)

	up, err := uc.Upload(bg, owner.ID, fileHeader(t, "a.png", pngBytes))
	require.NoError(t, err)

	ownerP := Principal{UserID: owner.ID, Role: entities.RoleMember}
	otherP := Principal{UserID: other.ID, Role: entities.RoleMember}
	adminP := Principal{UserID: admin.ID, Role: entities.RoleAdmin}

	_, err = uc.Get(bg, otherP, up.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	meta, f, err := uc.Open(bg, adminP, up.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, up.ID, meta.ID)

	mine, total, err := uc.List(bg, otherP, true, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total, "members cannot list everything")
	assert.Empty(t, mine)

	all, total, err := uc.List(bg, adminP, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, uc.Delete(bg, otherP, up.ID), apperrors.ErrNotFound)
	require.NoError(t, uc.Delete(bg, ownerP, up.ID))
	_, err = os.Stat(filepath.Join(s.cfg.Upload.Dir, up.StoredName))
	assert.True(t, os.IsNotExist(err))
	_, err = uc.Get(bg, ownerP, up.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUploadUseCase_Avatar(t *testing.T) {
	s := newStack(t)
	user := testutil.CreateTestUser(t, s.db, "owner@example.com", entities.RoleMember)
	uc := NewUploadUseCase(s.uploads, s.users, s.cfg.Upload, nil)

	updated, err := uc.UploadAvatar(bg, user.ID, fileHeader(t, "me.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.AvatarURL, "/api/v1/uploads/"))
	assert.True(t, strings.HasSuffix(updated.AvatarURL, "/download"))

	_, err = uc.UploadAvatar(bg, user.ID, fileHeader(t, "me.txt", []byte("not an image")))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnsupportedMedia, apperrors.From(err).Code)
}
