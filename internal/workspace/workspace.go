// Package workspace creates the directories a dispatch run lays out inside the
// image directory: one shared output root and one scratch directory per batch.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"schedconvert/internal/services"
)

const (
	DefaultOutputDir  = "converted"
	DefaultTempPrefix = "temp"
)

// Layout names the directories under an image directory.
type Layout struct {
	Root       string
	OutputName string
	TempPrefix string
}

// New returns a Layout rooted at dir. Empty names fall back to the defaults.
func New(dir, outputName, tempPrefix string) Layout {
	if outputName == "" {
		outputName = DefaultOutputDir
	}
	if tempPrefix == "" {
		tempPrefix = DefaultTempPrefix
	}
	return Layout{Root: dir, OutputName: outputName, TempPrefix: tempPrefix}
}

// OutputDir returns <root>/converted.
func (l Layout) OutputDir() string {
	return filepath.Join(l.Root, l.OutputName)
}

// TempDir returns <root>/temp<index>.
func (l Layout) TempDir(index int) string {
	return filepath.Join(l.Root, l.TempPrefix+strconv.Itoa(index))
}

// EnsureOutputDir creates the output root. An existing directory is not an error.
func (l Layout) EnsureOutputDir() (string, error) {
	path := l.OutputDir()
	if err := ensureDir(path); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "prepare", "create output directory", path, err)
	}
	return path, nil
}

// EnsureTempDir creates the scratch directory for one batch.
func (l Layout) EnsureTempDir(index int) (string, error) {
	path := l.TempDir(index)
	if err := ensureDir(path); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "prepare", "create temp directory", path, err)
	}
	return path, nil
}

func ensureDir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return statErr
		}
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
	}
	return nil
}
