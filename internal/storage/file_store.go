package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"
)

// FileStore keeps uploaded database files under a single directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if ok, _ := afero.DirExists(fs, dir); !ok {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
		}
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

// NewOsFileStore is a FileStore on the real filesystem.
func NewOsFileStore(dir string) (*FileStore, error) {
	return NewFileStore(afero.NewOsFs(), dir)
}

func (s *FileStore) Dir() string {
	return s.dir
}

// StoredName derives a collision-free file name from an uploaded file name.
func StoredName(originalName string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	name := slug.Make(base)
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s_%s.db", uuid.NewString(), name)
}

// Save copies r into a new file named after originalName and returns its
// path and size. A partially written file is removed on error.
func (s *FileStore) Save(r io.Reader, originalName string) (string, int64, error) {
	path := filepath.Join(s.dir, StoredName(originalName))

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	return path, n, nil
}

func (s *FileStore) Size(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *FileStore) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// Remove deletes path. A file that is already gone is not an error.
func (s *FileStore) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
