package imagedir_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"schedconvert/internal/batch"
	"schedconvert/internal/imagedir"
	"schedconvert/internal/services"
	"schedconvert/internal/testsupport"
)

func TestListKeepsRegularFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.jpg", "a.jpg", "B.jpg", "notes.txt"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), 10)
	}
	for _, sub := range []string{"converted", "temp0"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
	}
	if err := os.Symlink(filepath.Join(dir, "a.jpg"), filepath.Join(dir, "link.jpg")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "dangling.jpg")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "converted"), filepath.Join(dir, "dirlink")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	listing, err := imagedir.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"B.jpg", "a.jpg", "c.jpg", "link.jpg", "notes.txt"}
	if got := listing.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected names: got %v want %v", got, want)
	}
	if listing.Count() != len(want) {
		t.Fatalf("unexpected count: %d", listing.Count())
	}
	if listing.Dir() != dir {
		t.Fatalf("unexpected dir: %q", listing.Dir())
	}
}

func TestListMissingDirectoryIsFilesystemError(t *testing.T) {
	_, err := imagedir.List(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected filesystem error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	listing, err := imagedir.List(t.TempDir())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Count() != 0 {
		t.Fatalf("expected no files, got %d", listing.Count())
	}
	if got := listing.Slice(batch.Batch{Start: 0, End: 0}); got != nil {
		t.Fatalf("expected nil slice, got %v", got)
	}
}

func TestSliceSizeAndSpan(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"img0.png", "img1.png", "img2.png", "img3.png"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), int64(100*(i+1)))
	}
	listing, err := imagedir.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	b := batch.Batch{Index: 1, Start: 1, End: 3}
	if got := len(listing.Slice(b)); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
	if got := listing.Size(b); got != 500 {
		t.Fatalf("unexpected size: %d", got)
	}
	first, last := listing.Span(b)
	if first != "img1.png" || last != "img2.png" {
		t.Fatalf("unexpected span: %q..%q", first, last)
	}
	if got := len(listing.Slice(batch.Batch{Start: 2, End: 99})); got != 2 {
		t.Fatalf("expected clamped slice of 2, got %d", got)
	}
}
