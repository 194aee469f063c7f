package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const maxNameAttempts = 8

// ComposeName builds "{importance}_{slug}-{suffix}{ext}". The extension is
// kept exactly as the original file spells it.
func ComposeName(importance int, slug, suffix, ext string) string {
	return fmt.Sprintf("%d_%s-%s%s", importance, slug, suffix, ext)
}

// uniqueName picks a name in dir that does not already exist, drawing a new
// suffix on each collision.
func uniqueName(dir string, importance int, slug, ext string, suffix func() string) (string, error) {
	for range maxNameAttempts {
		name := ComposeName(importance, slug, suffix(), ext)
		_, err := os.Lstat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", slug, maxNameAttempts)
}
