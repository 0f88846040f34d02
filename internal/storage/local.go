package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// localStorage implements Storage on the local filesystem rooted at baseDir.
// Directories are created on demand, so a fresh deployment needs no setup.
type localStorage struct {
	baseDir string
}

// NewLocal creates a filesystem-backed Storage rooted at baseDir.
func NewLocal(baseDir string) (Storage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage base dir is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	return &localStorage{baseDir: abs}, nil
}

func (s *localStorage) path(key string) (string, string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

// Put writes r to a new file. The file is removed again if the copy fails.
func (s *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	clean, full, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("open file: %w", err)
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return ObjectInfo{}, discard(f, full, fmt.Errorf("read sniff: %w", readErr))
	}
	if _, err := f.Write(sniff[:n]); err != nil {
		return ObjectInfo{}, discard(f, full, fmt.Errorf("write sniff: %w", err))
	}
	written, err := io.Copy(f, r)
	if err != nil {
		return ObjectInfo{}, discard(f, full, fmt.Errorf("write body: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return ObjectInfo{}, fmt.Errorf("close file: %w", err)
	}

	contentType := opt.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(sniff[:n])
	}

	st, err := os.Stat(full)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return ObjectInfo{
		Key:          clean,
		Size:         int64(n) + written,
		ContentType:  contentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func discard(f *os.File, full string, cause error) error {
	_ = f.Close()
	_ = os.Remove(full)
	return cause
}

// Get opens the stored file.
func (s *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	clean, full, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}

	var sniff [512]byte
	n, _ := io.ReadFull(f, sniff[:])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}

	return f, ObjectInfo{
		Key:          clean,
		Size:         st.Size(),
		ContentType:  contentTypeFor(clean, sniff[:n]),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes the file; a missing file is ignored.
func (s *localStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
