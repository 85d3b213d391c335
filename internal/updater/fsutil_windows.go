//go:build windows

package updater

import "os"

// clearReadOnly drops the read-only attribute so the path can be deleted
// or overwritten. Windows refuses both operations on read-only files.
func clearReadOnly(path string) {
	fi, err := os.Lstat(path)
	if err != nil {
		return
	}
	if fi.Mode().Perm()&0200 == 0 {
		os.Chmod(path, fi.Mode().Perm()|0200)
	}
}
