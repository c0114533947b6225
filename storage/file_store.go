package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var _ Store = (*FileStore)(nil)

// FileStore persists each key as a JSON file inside a data directory.
// Writes go through a temp file and rename so a crash mid-write never leaves
// a half-written value behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("[NewFileStore] data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] create data directory")
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(fs.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.Get] read")
	}
	return data, nil
}

func (fs *FileStore) Set(key string, value []byte) error {
	target := fs.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Set] write temp file")
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "[FileStore.Set] rename")
	}
	return nil
}

func (fs *FileStore) Delete(key string) error {
	if err := os.Remove(fs.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Delete] remove")
	}
	return nil
}

// path maps a storage key to a file name, replacing characters that are not
// filesystem-safe.
func (fs *FileStore) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(fs.dir, safe+".json")
}
