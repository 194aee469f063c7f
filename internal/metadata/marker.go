package metadata

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"vidtriage/internal/services"
)

// DefaultMarkerAttr is the extended attribute desktop file managers show as
// the file comment.
const DefaultMarkerAttr = "user.xdg.comment"

// Marker reads and writes the per-file comment used as the idempotency flag.
type Marker interface {
	Marker(path string) (string, error)
	SetMarker(path, text string) error
}

// HasMarker reports whether path carries a non-empty comment.
func HasMarker(m Marker, path string) (bool, error) {
	text, err := m.Marker(path)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(text) != "", nil
}

// XattrMarker stores the comment as an extended attribute on the file itself,
// so it follows the file across renames.
type XattrMarker struct {
	Attr string
}

// NewXattrMarker returns a marker backed by DefaultMarkerAttr.
func NewXattrMarker() *XattrMarker {
	return &XattrMarker{Attr: DefaultMarkerAttr}
}

func (x *XattrMarker) attr() string {
	if x == nil || x.Attr == "" {
		return DefaultMarkerAttr
	}
	return x.Attr
}

// Marker returns the stored comment, or "" when none is set.
func (x *XattrMarker) Marker(path string) (string, error) {
	name := x.attr()
	size, err := unix.Getxattr(path, name, nil)
	if err != nil {
		if errors.Is(err, errNoAttr) {
			return "", nil
		}
		return "", services.Wrap(services.ErrExternalTool, "metadata", "read marker", path, err)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil {
		if errors.Is(err, errNoAttr) {
			return "", nil
		}
		return "", services.Wrap(services.ErrExternalTool, "metadata", "read marker", path, err)
	}
	return string(buf[:n]), nil
}

// SetMarker writes text as the file comment, replacing any previous value.
func (x *XattrMarker) SetMarker(path, text string) error {
	if err := unix.Setxattr(path, x.attr(), []byte(text), 0); err != nil {
		if errors.Is(err, unix.ENOTSUP) {
			return services.Wrap(services.ErrConfiguration, "metadata", "write marker",
				fmt.Sprintf("filesystem does not support extended attributes (%s)", path), err)
		}
		return services.Wrap(services.ErrExternalTool, "metadata", "write marker", path, err)
	}
	return nil
}

// MemoryMarker keeps comments in a map keyed by path.
type MemoryMarker struct {
	mu      sync.Mutex
	entries map[string]string
	writes  int
}

// NewMemoryMarker returns an empty in-memory marker store.
func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{entries: make(map[string]string)}
}

func (m *MemoryMarker) Marker(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[path], nil
}

func (m *MemoryMarker) SetMarker(path, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[path] = text
	m.writes++
	return nil
}

// Writes returns how many SetMarker calls succeeded.
func (m *MemoryMarker) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
