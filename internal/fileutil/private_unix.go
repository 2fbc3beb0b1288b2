//go:build !windows

package fileutil

import "os"

// On Unix the mode bits are the whole story. These do not guard against
// symlink traversal or TOCTOU races.

func mkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func openFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

func chmod(path string, perm os.FileMode) error {
	return os.Chmod(path, perm)
}
