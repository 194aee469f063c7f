package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidtriage/internal/services"
)

func TestMemoryMarker(t *testing.T) {
	m := NewMemoryMarker()
	has, err := HasMarker(m, "/a.mov")
	if err != nil || has {
		t.Fatalf("expected no marker, got %v (%v)", has, err)
	}
	if err := m.SetMarker("/a.mov", "   "); err != nil {
		t.Fatal(err)
	}
	if has, _ := HasMarker(m, "/a.mov"); has {
		t.Fatal("whitespace-only comment must not count as a marker")
	}
	if err := m.SetMarker("/a.mov", "Importance 2/9: kids"); err != nil {
		t.Fatal(err)
	}
	if has, _ := HasMarker(m, "/a.mov"); !has {
		t.Fatal("expected marker after SetMarker")
	}
	if m.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", m.Writes())
	}
}

func TestXattrMarkerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mov")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewXattrMarker()

	text, err := m.Marker(path)
	if err != nil {
		t.Fatalf("Marker on fresh file: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty marker, got %q", text)
	}

	if err := m.SetMarker(path, "Importance 5/9: scenery"); err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			t.Skipf("extended attributes unsupported on temp dir: %v", err)
		}
		t.Fatalf("SetMarker: %v", err)
	}
	text, err = m.Marker(path)
	if err != nil {
		t.Fatalf("Marker: %v", err)
	}
	if text != "Importance 5/9: scenery" {
		t.Fatalf("unexpected marker %q", text)
	}

	renamed := filepath.Join(filepath.Dir(path), "renamed.mov")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatal(err)
	}
	if has, err := HasMarker(m, renamed); err != nil || !has {
		t.Fatalf("expected marker to follow rename, got %v (%v)", has, err)
	}
}

func TestXattrMarkerMissingFile(t *testing.T) {
	_, err := NewXattrMarker().Marker(filepath.Join(t.TempDir(), "missing.mov"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
