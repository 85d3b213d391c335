package updater

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyFile copies a regular file, creating parent directories and
// preserving the source mode. An existing destination is overwritten.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	mode := fi.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	clearReadOnly(dst)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies a directory tree wholesale. Non-regular files (sockets,
// symlinks) are skipped; an install tree never contains them.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

// removeTree deletes a file or directory tree. When the first attempt is
// blocked by a read-only entry the tree is made writable and retried.
func removeTree(path string) error {
	if err := os.RemoveAll(path); err == nil {
		return nil
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err == nil {
			clearReadOnly(p)
		}
		return nil
	})
	return os.RemoveAll(path)
}
