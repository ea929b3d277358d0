package utils

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// OpenAppend opens filename for appending, creating it and its parent
// directory when missing.
func OpenAppend(filename string, perm os.FileMode) (*os.File, error) {
	dir := filepath.Dir(filename)
	exists, err := PathExists(dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, perm)
}

// PathExists reports whether filename exists. A stat failure other than
// "not found" is returned so callers can tell "absent" from "unreadable".
func PathExists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		log.Debug().Err(err).Str("path", filename).Msg("stat failed")
		return false, err
	}
}

// WriteFileAtomic writes data to a temp file next to filename and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, filename)
}

func GetEnvOrDefault(envVar string, defaultValue string) string {
	envValue := os.Getenv(envVar)
	if len(envValue) == 0 {
		return defaultValue
	}
	return envValue
}
