package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := min(int64(chunkSize), remaining)
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteImages creates count placeholder images named img00000.jpg onward in dir
// and returns their names in sorted order.
func WriteImages(t testing.TB, dir string, count int) []string {
	t.Helper()

	names := make([]string, 0, count)
	for i := range count {
		name := fmt.Sprintf("img%05d.jpg", i)
		WriteFile(t, filepath.Join(dir, name), 16)
		names = append(names, name)
	}
	return names
}

// WaitForFile polls until path exists or the timeout elapses. Detached workers
// finish on their own schedule, so tests observe them through the files they
// leave behind.
func WaitForFile(t testing.TB, path string, timeout time.Duration) []byte {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s: %v", path, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
