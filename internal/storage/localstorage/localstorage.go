// Package localstorage provides structure to work with result files on local disk
package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var ErrOutsideRoot = errors.New("path is outside of storage root")

type LocalImageStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalImageStorage, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "gradio")
		log.Printf("Storage root is empty. Using default value %q...", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// создаем директорию если её нет
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %q: %w", abs, err)
	}

	return &LocalImageStorage{root: abs}, nil
}

// Path - абсолютный путь файла по ключу
func (s *LocalImageStorage) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalImageStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	src := r
	if size > 0 {
		src = io.LimitReader(r, size)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// Get принимает как ключ, так и абсолютный путь внутри корня хранилища
func (s *LocalImageStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, mtype.String(), nil
}

func (s *LocalImageStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	// чистим пустую директорию загрузки, сам корень не трогаем
	if dir := filepath.Dir(path); dir != s.root {
		_ = os.Remove(dir)
	}
	return nil
}

// Sweep удаляет файлы старше olderThan: это результаты запросов, упавших до своего Delete
func (s *LocalImageStorage) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	deadline := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(deadline) {
			return nil
		}

		if err := s.Delete(ctx, path); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (s *LocalImageStorage) resolve(key string) (string, error) {
	path := key
	if !filepath.IsAbs(path) {
		path = s.Path(key)
	}
	path = filepath.Clean(path)

	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, key)
	}
	return path, nil
}
