package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ScratchRoot returns the scratch namespace for one target directory under
// base. Distinct targets never share a namespace, so a run only clears its
// own leftovers.
func ScratchRoot(base, targetDir string) string {
	return filepath.Join(base, uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.Clean(targetDir))).String())
}

// ResetScratch removes per-asset scratch directories left beneath root by an
// interrupted run and makes sure root exists. Only uuid-named children are
// touched; anything else under root is left alone.
func ResetScratch(root string) error {
	if root == "" {
		return fmt.Errorf("scratch root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create scratch %s: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read scratch %s: %w", root, err)
	}
	var errs error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return fmt.Errorf("clear scratch %s: %w", root, errs)
	}
	return nil
}

func newAssetScratch(root string) (string, error) {
	dir := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create asset scratch: %w", err)
	}
	return dir, nil
}
