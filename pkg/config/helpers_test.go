package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile writes contents to a fresh temp file and returns its path.
func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".brain")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func writeExact(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
