package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vidtriage/internal/services"
)

// Extension filters for the two analysis modes and for compression.
var (
	MOVExtensions = []string{".mov"}
	MP4Extensions = []string{".mp4"}
)

// Entry is one eligible file.
type Entry struct {
	Path string
	Size int64
}

// Scan lists regular files directly inside dir whose extension matches one
// of exts (case-insensitive), sorted by size ascending and then by name.
// Hidden files are ignored.
func Scan(dir string, exts []string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "batch", "scan", dir, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "batch", "scan", fmt.Sprintf("%s is not a directory", dir), nil)
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "batch", "scan", dir, err)
	}

	wanted := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		wanted[strings.ToLower(ext)] = struct{}{}
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") || !de.Type().IsRegular() {
			continue
		}
		if _, ok := wanted[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Path: filepath.Join(dir, name), Size: fi.Size()})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Size != entries[j].Size {
			return entries[i].Size < entries[j].Size
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// Limit keeps the first n entries; n <= 0 keeps all.
func Limit(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
