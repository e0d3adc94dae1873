package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walfie-raid/petronel/internal/model"
)

// ErrInvalidPath is returned by NewFileStore when path is empty.
var ErrInvalidPath = errors.New("persistence: file store path cannot be empty")

// FileStore persists the boss list as a single JSON file, written
// atomically (temp file + rename) the way imageproxy's DiskCache
// writes its cache entries to disk.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by the file at path. The
// file need not exist yet; GetBosses returns an empty slice until the
// first SaveBosses.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	return &FileStore{path: path}, nil
}

// GetBosses implements Store.
func (s *FileStore) GetBosses(ctx context.Context) ([]model.Boss, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: reading %s: %w", s.path, err)
	}

	var dtos []bossDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("persistence: decoding %s: %w", s.path, err)
	}

	bosses := make([]model.Boss, len(dtos))
	for i, dto := range dtos {
		bosses[i] = fromDTO(dto)
	}
	return bosses, nil
}

// SaveBosses implements Store. The write is atomic: it writes to a
// temp file alongside path, then renames over the destination, so a
// concurrent GetBosses (in this process or another) never observes a
// partially-written file.
func (s *FileStore) SaveBosses(ctx context.Context, bosses []model.Boss) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dtos := make([]bossDTO, len(bosses))
	for i, b := range bosses {
		dtos[i] = toDTO(b)
	}

	data, err := json.Marshal(dtos)
	if err != nil {
		return fmt.Errorf("persistence: encoding boss list: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persistence: creating %s: %w", dir, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("persistence: writing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persistence: renaming %s to %s: %w", tmpPath, s.path, err)
	}
	return nil
}
