package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// assertPermNoMoreThan checks that path grants nothing beyond want. The
// umask may only remove bits.
func assertPermNoMoreThan(t *testing.T, path string, want os.FileMode) {
	t.Helper()
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if got := info.Mode().Perm(); got&^want != 0 {
		t.Errorf("perm = %04o, has bits beyond %04o", got, want)
	}
}

func TestMkdirPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home", "data")
	if err := MkdirPrivate(path); err != nil {
		t.Fatalf("MkdirPrivate: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}
	assertPermNoMoreThan(t, path, DirPerm)

	// Existing directories are fine.
	if err := MkdirPrivate(path); err != nil {
		t.Errorf("second MkdirPrivate: %v", err)
	}
}

func TestCreatePrivateTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte("old contents that are long"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := CreatePrivate(path)
	if err != nil {
		t.Fatalf("CreatePrivate: %v", err)
	}
	if _, err := f.WriteString("new"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}
}

func TestAppendPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rosterview.log")
	for _, line := range []string{"one\n", "two\n"} {
		f, err := AppendPrivate(path)
		if err != nil {
			t.Fatalf("AppendPrivate: %v", err)
		}
		if _, err := f.WriteString(line); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one\ntwo\n" {
		t.Errorf("content = %q", got)
	}
	assertPermNoMoreThan(t, path, FilePerm)
}

func TestRestrictFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := RestrictFile(path); err != nil {
		t.Fatalf("RestrictFile: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := info.Mode().Perm(); got != FilePerm {
			t.Errorf("perm = %04o, want %04o", got, FilePerm)
		}
	}
}

func TestCreatePrivateMissingParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "file")
	if _, err := CreatePrivate(path); err == nil {
		t.Fatal("expected error for nonexistent parent dir")
	}
}
