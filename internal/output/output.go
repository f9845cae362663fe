// Package output writes generated files.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrOutdated is returned in check mode when a file is missing or differs
// from what would be written.
var ErrOutdated = errors.New("generated output is out of date")

type WriteOptions struct {
	Check bool
}

// WriteFile replaces path with data through a temporary file in the same
// directory. It reports whether the file changed. Identical content is left
// untouched.
func WriteFile(path string, data []byte, opt WriteOptions) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			return false, nil
		}
		if opt.Check {
			return false, fmt.Errorf("%w: %s differs", ErrOutdated, path)
		}
	case errors.Is(err, fs.ErrNotExist):
		if opt.Check {
			return false, fmt.Errorf("%w: %s does not exist", ErrOutdated, path)
		}
	default:
		return false, fmt.Errorf("reading existing %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("renaming into %s: %w", path, err)
	}

	return true, nil
}
