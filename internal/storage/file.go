package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/notebox/internal/models"
)

// DefaultFileName is the collection file created inside the data directory.
const DefaultFileName = "notes.json"

const tmpPattern = ".notebox-tmp-*"

// FileBackend keeps the whole collection as one JSON document in a single
// file. Every rewrite goes through a temp file and an atomic rename.
type FileBackend struct {
	path   string // absolute path to the collection file
	logger *slog.Logger

	writeFile func(path string, data []byte) error
}

// NewFileBackend opens the collection file name inside dir, creating dir and
// an empty collection file when they do not exist yet.
func NewFileBackend(dir, name string, logger *slog.Logger) (*FileBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path, err := FilePath(dir, name)
	if err != nil {
		return nil, err
	}
	abs := filepath.Dir(path)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: data dir is not a directory: %s", abs)
	}

	b := &FileBackend{
		path:      path,
		logger:    logger,
		writeFile: writeAtomic,
	}
	if _, err := os.Stat(b.path); errors.Is(err, fs.ErrNotExist) {
		if err := b.writeFile(b.path, emptyCollection); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", b.path, err)
	}
	return b, nil
}

// FilePath returns the absolute path of the collection file name inside dir.
// Only the base of name is used, so the file always sits directly in dir.
func FilePath(dir, name string) (string, error) {
	if name == "" {
		name = DefaultFileName
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("storage: resolve data dir: %w", err)
	}
	return filepath.Join(abs, filepath.Base(name)), nil
}

// Name implements Backend.
func (b *FileBackend) Name() string { return "JSON File" }

// Path returns the absolute path of the collection file.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) load() ([]models.Note, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", b.path, err)
	}
	return decode(data)
}

func (b *FileBackend) write(notes []models.Note) error {
	data, err := encode(notes)
	if err != nil {
		return err
	}
	return b.writeFile(b.path, data)
}

// GetAll implements Backend.
func (b *FileBackend) GetAll(_ context.Context) []models.Note {
	notes, err := b.load()
	if err != nil {
		b.logger.Warn("file backend: read failed, treating as empty",
			slog.String("path", b.path), slog.String("error", err.Error()))
		return []models.Note{}
	}
	return notes
}

// Save implements Backend.
func (b *FileBackend) Save(_ context.Context, n models.Note) error {
	notes, err := b.load()
	if err != nil {
		return err
	}
	return b.write(append(notes, n))
}

// DeleteOne implements Backend.
func (b *FileBackend) DeleteOne(_ context.Context, id string) (bool, error) {
	notes, err := b.load()
	if err != nil {
		return false, err
	}
	kept, removed := removeID(notes, id)
	if !removed {
		return false, nil
	}
	if err := b.write(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Replace implements Backend.
func (b *FileBackend) Replace(_ context.Context, id string, n models.Note) (bool, error) {
	notes, err := b.load()
	if err != nil {
		return false, err
	}
	kept, removed := removeID(notes, id)
	if !removed {
		return false, nil
	}
	if err := b.write(append(kept, n)); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAll rewrites the file with an empty collection.
func (b *FileBackend) DeleteAll(_ context.Context) error {
	return b.writeFile(b.path, emptyCollection)
}

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
