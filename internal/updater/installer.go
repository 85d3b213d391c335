package updater

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvkhoa/tracuu/internal/logging"
)

// backupDirName is the transient backup snapshot location, created next to
// the app directory for the duration of one install attempt.
const backupDirName = "update_backup"

// Installer applies a downloaded artifact over the install root. The app
// subtree and every root-level sibling the archive will overwrite are
// snapshotted first, and any failure before cleanup restores them.
type Installer struct {
	store *VersionFile
}

// NewInstaller creates an Installer committing versions to store.
func NewInstaller(store *VersionFile) *Installer {
	return &Installer{store: store}
}

// Install extracts the artifact at zipPath over the parent of appDir and
// commits newVersion to the version file. newVersion may be empty for a
// recovered artifact whose version is not yet known; the version record is
// then left untouched. On failure the previous tree is restored from the
// backup snapshot and a sentinel-wrapped error is returned. Cleanup failures
// (backup or artifact deletion) are warnings, not failures.
func (i *Installer) Install(zipPath, appDir, newVersion string) error {
	log := logging.WithComponent("updater")

	appDir = filepath.Clean(appDir)
	root := filepath.Dir(appDir)
	backupRoot := filepath.Join(root, backupDirName)

	log.Info("installing update", "artifact", zipPath, "version", newVersion)

	if err := removeTree(backupRoot); err != nil {
		return fmt.Errorf("%w: remove stale backup: %v", ErrBackupFailed, err)
	}
	if err := os.MkdirAll(backupRoot, 0755); err != nil {
		return fmt.Errorf("%w: create backup dir: %v", ErrBackupFailed, err)
	}

	if err := i.apply(log, zipPath, appDir, root, backupRoot, newVersion); err != nil {
		i.rollback(log, appDir, root, backupRoot)
		return err
	}

	i.cleanup(log, zipPath, backupRoot)
	log.Info("update installed")
	return nil
}

// apply performs the fallible portion of the install: snapshot, extract,
// version commit.
func (i *Installer) apply(log *slog.Logger, zipPath, appDir, root, backupRoot, newVersion string) error {
	if _, err := os.Stat(appDir); err == nil {
		if err := copyTree(appDir, filepath.Join(backupRoot, filepath.Base(appDir))); err != nil {
			return fmt.Errorf("%w: snapshot %s: %v", ErrBackupFailed, appDir, err)
		}
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer zr.Close()

	// The archive may carry root-level siblings of the app directory;
	// snapshot the current version of each one before it is overwritten.
	for _, name := range topLevelEntries(&zr.Reader, filepath.Base(appDir)) {
		src := filepath.Join(root, name)
		fi, err := os.Stat(src)
		if err != nil {
			continue // entry is new at the root, nothing to back up
		}
		dst := filepath.Join(backupRoot, name)
		if fi.IsDir() {
			err = copyTree(src, dst)
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			return fmt.Errorf("%w: snapshot %s: %v", ErrBackupFailed, src, err)
		}
	}

	if err := extractAll(&zr.Reader, root); err != nil {
		return err
	}

	i.commitVersion(log, newVersion)
	return nil
}

// commitVersion persists the installed version. The record is saved even
// when the version is unchanged, but the upgrade is only announced when it
// actually changed. A failed save after a successful extraction is a
// warning: the stale record triggers a harmless re-check later.
func (i *Installer) commitVersion(log *slog.Logger, newVersion string) {
	if newVersion == "" {
		return
	}

	info := i.store.Load()
	oldVersion := info.Version
	info.Version = normalizeVersion(newVersion)

	if err := i.store.Save(info); err != nil {
		log.Warn("cannot persist version record", "error", err)
		return
	}
	if oldVersion != info.Version {
		log.Info("version upgraded", "from", oldVersion, "to", info.Version)
	}
}

// cleanup removes the backup snapshot and the consumed artifact. Failures
// here never fail the install.
func (i *Installer) cleanup(log *slog.Logger, zipPath, backupRoot string) {
	if err := removeTree(backupRoot); err != nil {
		log.Warn("cannot delete backup, leaving it in place", "path", backupRoot, "error", err)
	}
	clearReadOnly(zipPath)
	if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
		log.Warn("cannot delete update artifact", "path", zipPath, "error", err)
	}
}

// rollback restores the app subtree and every backed-up sibling.
// Failures are logged per path and do not stop the remaining restores;
// a partial rollback leaves the install root mixed between versions, so
// those lines are the loudest this package emits.
func (i *Installer) rollback(log *slog.Logger, appDir, root, backupRoot string) {
	log.Warn("install failed, rolling back", "backup", backupRoot)

	appName := filepath.Base(appDir)
	appBackup := filepath.Join(backupRoot, appName)
	if _, err := os.Stat(appBackup); err == nil {
		if err := removeTree(appDir); err != nil {
			log.Warn("cannot remove updated app tree, overwriting in place", "path", appDir, "error", err)
		}
		if err := copyTree(appBackup, appDir); err != nil {
			log.Error("rollback could not restore app tree, install root may be mixed", "path", appDir, "error", err)
		} else {
			log.Info("restored app tree", "path", appDir)
		}
	}

	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		log.Error("rollback cannot read backup dir", "path", backupRoot, "error", err)
		return
	}
	for _, e := range entries {
		if e.Name() == appName {
			continue
		}
		src := filepath.Join(backupRoot, e.Name())
		dst := filepath.Join(root, e.Name())

		if err := removeTree(dst); err != nil {
			log.Warn("cannot remove path before restore", "path", dst, "error", err)
		}
		var cerr error
		if e.IsDir() {
			cerr = copyTree(src, dst)
		} else {
			cerr = copyFile(src, dst)
		}
		if cerr != nil {
			log.Error("rollback could not restore path, install root may be mixed", "path", dst, "error", cerr)
			continue
		}
		log.Info("restored", "path", dst)
	}

	log.Info("rollback finished")
}

// topLevelEntries returns the distinct top-level names of file entries in
// the archive, excluding the app directory itself, macOS resource junk and
// the backup location.
func topLevelEntries(zr *zip.Reader, appName string) []string {
	seen := make(map[string]struct{})
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		first := strings.SplitN(name, "/", 2)[0]
		switch first {
		case "", "..", appName, "__MACOSX", backupDirName:
			continue
		}
		seen[first] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// extractAll extracts every archive entry under root, overwriting in place.
// Entries that would escape root fail the install.
func extractAll(zr *zip.Reader, root string) error {
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		clean := filepath.Clean(filepath.FromSlash(name))
		if clean == "." || clean == "" {
			continue
		}
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry escapes install root: %s", ErrInvalidArchive, f.Name)
		}
		target := filepath.Join(root, clean)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("%w: create dir %s: %v", ErrInstallFailed, target, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: create parent of %s: %v", ErrInstallFailed, target, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer src.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	clearReadOnly(target)
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrInstallFailed, target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		// A CRC or decompression failure surfaces here.
		return fmt.Errorf("%w: extract %s: %v", ErrInvalidArchive, f.Name, err)
	}
	return out.Close()
}
