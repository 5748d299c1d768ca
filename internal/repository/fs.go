package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

const defaultFilePermissions = 0644

// FileSystemRepository defines the interface for filesystem operations.

type FileSystemRepository interface {
	afero.Fs
}

// ReadTextFile returns the file content, or fallback when the file does not exist.
func ReadTextFile(fsRepo FileSystemRepository, path, fallback string) (string, error) {
	data, err := afero.ReadFile(fsRepo, path)
	if errors.Is(err, fs.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteTextFile overwrites path, keeping the mode of an existing file.
func WriteTextFile(fsRepo FileSystemRepository, path, content string) error {
	perm := os.FileMode(defaultFilePermissions)
	if info, err := fsRepo.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := afero.WriteFile(fsRepo, path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
