package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"zamahub/internal/logging"
	"zamahub/internal/storage"
)

const (
	uploadPrefix = "profiles"
	// UploadURLPrefix is the public path stored objects are served under.
	UploadURLPrefix = "/uploads/"
)

// Upload is an optional file attached to a create or update request.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

func (u *Upload) present() bool {
	return u != nil && u.Reader != nil && u.Size != 0
}

// uploadKey returns profiles/<uuid><ext>. The extension is lowercased and dropped
// unless it is purely alphanumeric.
func uploadKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		for _, c := range ext[1:] {
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
				ext = ""
				break
			}
		}
		if ext == "." {
			ext = ""
		}
	}
	return uploadPrefix + "/" + uuid.New().String() + ext
}

// PublicURL maps a storage key to its root-relative URL.
func PublicURL(key string) string {
	return UploadURLPrefix + key
}

// saveUpload stores u and returns its key and public URL.
func saveUpload(ctx context.Context, store storage.Storage, u *Upload) (string, string, error) {
	key := uploadKey(u.Filename)
	_, err := store.Put(ctx, key, u.Reader, storage.PutObjectOptions{
		Size:        u.Size,
		ContentType: u.ContentType,
		Metadata: map[string]string{
			"original-filename": u.Filename,
		},
	})
	if err != nil {
		return "", "", err
	}
	return key, PublicURL(key), nil
}

// rollbackUpload removes a file whose document write failed. Failure is logged only.
func rollbackUpload(ctx context.Context, store storage.Storage, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), key); err != nil {
		logging.ErrorCtx(ctx, "upload_rollback_failed", map[string]any{"key": key, "error": err})
	}
}
