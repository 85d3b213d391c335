//go:build !windows

package updater

import "os"

// clearReadOnly makes a path deletable. On Unix unlinking is governed by
// the parent directory, but trees copied from a read-only install can still
// carry unwritable directories that block RemoveAll from descending.
func clearReadOnly(path string) {
	fi, err := os.Lstat(path)
	if err != nil {
		return
	}
	if fi.IsDir() && fi.Mode().Perm()&0200 == 0 {
		os.Chmod(path, fi.Mode().Perm()|0300)
	}
}
