package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"starter-server/apperrors"
	"starter-server/confs"
	"starter-server/entities"
	"starter-server/repositories"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UploadUseCase struct {
	UploadRepo repositories.UploadRepository
	UserRepo   repositories.UserRepository

	dir      string
	maxBytes int64
	allowed  []string
	recorder UsageRecorder
}

func NewUploadUseCase(uploadRepo repositories.UploadRepository, userRepo repositories.UserRepository, cfg confs.UploadConfig, recorder UsageRecorder) *UploadUseCase {
	return &UploadUseCase{
		UploadRepo: uploadRepo,
		UserRepo:   userRepo,
		dir:        cfg.Dir,
		maxBytes:   cfg.MaxBytes,
		allowed:    cfg.AllowedTypes,
		recorder:   recorder,
	}
}

// MaxBytes is the largest accepted file.
func (uc *UploadUseCase) MaxBytes() int64 { return uc.maxBytes }

// Upload stores a multipart file. The content type is sniffed from the
// bytes; the client supplied header and file name are not trusted.
func (uc *UploadUseCase) Upload(ctx context.Context, ownerID string, fh *multipart.FileHeader) (*entities.Upload, error) {
	return uc.store(ctx, ownerID, fh, uc.allowed)
}

// UploadAvatar stores an image and makes it the user's avatar.
func (uc *UploadUseCase) UploadAvatar(ctx context.Context, userID string, fh *multipart.FileHeader) (*entities.User, error) {
	var images []string
	for _, t := range uc.allowed {
		if strings.HasPrefix(t, "image/") {
			images = append(images, t)
		}
	}
	if len(images) == 0 {
		return nil, apperrors.UnsupportedMedia("image/*")
	}

	upload, err := uc.store(ctx, userID, fh, images)
	if err != nil {
		return nil, err
	}

	user, err := uc.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = "/api/v1/uploads/" + upload.ID + "/download"
	if err := uc.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UploadUseCase) store(ctx context.Context, ownerID string, fh *multipart.FileHeader, allowed []string) (*entities.Upload, error) {
	if fh == nil {
		return nil, apperrors.Validation("file is required")
	}
	if fh.Size > uc.maxBytes {
		return nil, apperrors.PayloadTooLarge(uc.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	contentType := strings.TrimSpace(strings.SplitN(mtype.String(), ";", 2)[0])
	if !mimetype.EqualsAny(contentType, allowed...) {
		return nil, apperrors.UnsupportedMedia(contentType)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(uc.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	id := uuid.New().String()
	stored := id + mtype.Extension()
	path := filepath.Join(uc.dir, stored)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	written, err := io.Copy(dst, io.LimitReader(src, uc.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if written > uc.maxBytes {
		_ = os.Remove(path)
		return nil, apperrors.PayloadTooLarge(uc.maxBytes)
	}

	upload := &entities.Upload{
		ID:           id,
		OwnerID:      ownerID,
		OriginalName: sanitizeName(fh.Filename),
		StoredName:   stored,
		ContentType:  contentType,
		Size:         written,
	}
	if err := uc.UploadRepo.Create(ctx, upload); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	if uc.recorder != nil {
		uc.recorder.Record(ownerID, entities.MetricUploads, 1)
	}
	return upload, nil
}

// Get returns upload metadata visible to p. Other users' uploads are
// reported as missing unless p is an admin.
func (uc *UploadUseCase) Get(ctx context.Context, p Principal, id string) (*entities.Upload, error) {
	upload, err := uc.UploadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("upload")
		}
		return nil, err
	}
	if upload.OwnerID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.NotFound("upload")
	}
	return upload, nil
}

// Open returns the metadata and an open handle on the stored file. The
// caller closes the file.
func (uc *UploadUseCase) Open(ctx context.Context, p Principal, id string) (*entities.Upload, *os.File, error) {
	upload, err := uc.Get(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(uc.dir, upload.StoredName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperrors.NotFound("upload")
		}
		return nil, nil, fmt.Errorf("open stored file: %w", err)
	}
	return upload, f, nil
}

// List returns p's uploads, or every upload when an admin asks for all.
func (uc *UploadUseCase) List(ctx context.Context, p Principal, all bool, limit, offset int) ([]entities.Upload, int64, error) {
	owner := p.UserID
	if all && p.IsAdmin() {
		owner = ""
	}
	return uc.UploadRepo.ListByOwner(ctx, owner, limit, offset)
}

func (uc *UploadUseCase) Delete(ctx context.Context, p Principal, id string) error {
	upload, err := uc.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(uc.dir, upload.StoredName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return uc.UploadRepo.Delete(ctx, id)
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
