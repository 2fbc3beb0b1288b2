package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestAsSQLiteError(t *testing.T) {
	check := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"value form", fmt.Errorf("insert: %w", check), true},
		{"pointer form", fmt.Errorf("insert: %w", &check), true},
		{"plain error", errors.New("constraint failed"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se, ok := asSQLiteError(tt.err)
			if ok != tt.want {
				t.Fatalf("asSQLiteError(%v) ok = %v, want %v", tt.err, ok, tt.want)
			}
			if ok && se.ExtendedCode != sqlite3.ErrConstraintCheck {
				t.Errorf("ExtendedCode = %v, want ErrConstraintCheck", se.ExtendedCode)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}
	check := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}
	if !isUniqueViolation(fmt.Errorf("wrap: %w", pk)) || !isUniqueViolation(&pk) {
		t.Error("primary key violation not detected")
	}
	if isUniqueViolation(check) || isUniqueViolation(errors.New("x")) {
		t.Error("non-unique errors misdetected")
	}
}

// A database opened before `rosterview seed` has no users table; counting it
// must report an empty roster rather than fail.
func TestCountWithoutSchema(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	n, err := st.Count(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Count() = %d, %v; want 0, nil", n, err)
	}
	if _, err := st.FetchAll(context.Background()); err == nil {
		t.Error("FetchAll without schema succeeded, want error")
	}
}
