// Package scan lists the regular files below a root directory.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samiksome92/dedup/internal/dup"
)

var (
	// ErrPathNotFound is returned by CheckRoot when the root does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrNotADirectory is returned by CheckRoot when the root is not a directory.
	ErrNotADirectory = errors.New("not a directory")
)

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking folder `%s`: %w", root, ErrPathNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking folder `%s`: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("checking folder `%s`: %w", root, ErrNotADirectory)
	}
	return nil
}

// ErrorHandler decides what happens when an entry cannot be read. Returning
// nil skips the entry; anything else aborts the walk.
type ErrorHandler func(path string, err error) error

// Walk recursively collects every regular file below root in lexical order.
// Directories, symlinks and special files are left out. A nil onError aborts
// on the first error.
func Walk(root string, onError ErrorHandler) ([]dup.FileRecord, error) {
	var records []dup.FileRecord
	handle := func(path string, d fs.DirEntry, err error) error {
		if onError == nil {
			return err
		}
		if err = onError(path, err); err != nil {
			return err
		}
		if d != nil && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return handle(path, d, fmt.Errorf("reading `%s`: %w", path, err))
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return handle(path, nil, fmt.Errorf("fetching info for file `%s`: %w", path, err))
		}
		records = append(records, dup.FileRecord{
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning folder `%s`: %w", root, err)
	}
	return records, nil
}
