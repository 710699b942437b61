package deps

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Interpreter returns the program named on the "#!" line of script, or false
// when the file has none. "#!/usr/bin/env python2" yields "python2" so the
// caller can resolve it against PATH.
func Interpreter(script string) (string, bool) {
	f, err := os.Open(script)
	if err != nil {
		return "", false
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	if !strings.HasPrefix(line, "#!") {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return "", false
	}
	if filepath.Base(fields[0]) == "env" {
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "-") {
				continue
			}
			return f, true
		}
		return "", false
	}
	return fields[0], true
}
