// Package fileutil creates files and directories that hold roster data.
// Rosters carry names, email addresses and balances, so everything written
// under the rosterview home (database, exports, logs) is owner-only.
package fileutil

import "os"

// Owner-only permissions used for roster data.
const (
	DirPerm  os.FileMode = 0700
	FilePerm os.FileMode = 0600
)

// MkdirPrivate creates dir and any missing parents with DirPerm.
func MkdirPrivate(dir string) error {
	return mkdirAll(dir, DirPerm)
}

// CreatePrivate creates or truncates path for writing with FilePerm.
func CreatePrivate(path string) (*os.File, error) {
	return openFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm)
}

// AppendPrivate opens path for appending, creating it with FilePerm.
func AppendPrivate(path string) (*os.File, error) {
	return openFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, FilePerm)
}

// RestrictFile tightens an existing file written by another library
// (SQLite, excelize) to FilePerm.
func RestrictFile(path string) error {
	return chmod(path, FilePerm)
}
