// Package imagedir enumerates the regular files a dispatch run splits into
// batches.
package imagedir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"schedconvert/internal/batch"
	"schedconvert/internal/services"
)

// Entry is one regular file in the image directory.
type Entry struct {
	Name string
	Size int64
}

// Listing is the sorted set of regular files found in a directory. It is
// computed once per run and never mutated.
type Listing struct {
	dir     string
	entries []Entry
}

// List reads dir and keeps regular files only, sorted ascending by name.
// Symlinks count when they resolve to a regular file. Subdirectories, including
// the converted/ and temp directories a previous run created, are skipped.
func List(dir string) (*Listing, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "enumerate", "read directory", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		info, ok, err := regularFileInfo(dir, item)
		if err != nil {
			return nil, services.Wrap(services.ErrFilesystem, "enumerate", "stat", item.Name(), err)
		}
		if !ok {
			continue
		}
		entries = append(entries, Entry{Name: item.Name(), Size: info.Size()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return &Listing{dir: dir, entries: entries}, nil
}

func regularFileInfo(dir string, item fs.DirEntry) (fs.FileInfo, bool, error) {
	if item.Type().IsRegular() {
		info, err := item.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return info, true, nil
	}
	if item.Type()&fs.ModeSymlink == 0 {
		return nil, false, nil
	}
	info, err := os.Stat(filepath.Join(dir, item.Name()))
	if err != nil {
		// Dangling links are not files.
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return info, info.Mode().IsRegular(), nil
}

// Dir returns the directory the listing was read from.
func (l *Listing) Dir() string { return l.dir }

// Count returns the number of regular files.
func (l *Listing) Count() int { return len(l.entries) }

// Names returns the sorted file names.
func (l *Listing) Names() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.Name
	}
	return names
}

// Slice returns the entries covered by b. Out-of-range bounds are clamped.
func (l *Listing) Slice(b batch.Batch) []Entry {
	start, end := clamp(b.Start, len(l.entries)), clamp(b.End, len(l.entries))
	if start >= end {
		return nil
	}
	return append([]Entry(nil), l.entries[start:end]...)
}

// Size returns the total bytes of the files covered by b.
func (l *Listing) Size(b batch.Batch) int64 {
	var total int64
	for _, e := range l.Slice(b) {
		total += e.Size
	}
	return total
}

// Span returns the first and last file names covered by b, or empty strings
// for an empty batch.
func (l *Listing) Span(b batch.Batch) (string, string) {
	entries := l.Slice(b)
	if len(entries) == 0 {
		return "", ""
	}
	return entries[0].Name, entries[len(entries)-1].Name
}

func clamp(v, upper int) int {
	switch {
	case v < 0:
		return 0
	case v > upper:
		return upper
	default:
		return v
	}
}

func (l *Listing) String() string {
	return fmt.Sprintf("%s (%d files)", l.dir, len(l.entries))
}
