package config

import (
	"os"
	"testing"
)

// chdir заменяет t.Chdir (Go 1.24) для сборки на более старом тулчейне.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
