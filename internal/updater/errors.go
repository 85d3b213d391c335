// Package updater provides self-update functionality for the tracuu install tree.
package updater

import "errors"

var (
	// ErrRepoNotConfigured indicates the GitHub repository is empty or a placeholder.
	ErrRepoNotConfigured = errors.New("github repository not configured")

	// ErrNoUpdateAvailable indicates the current version is up to date.
	ErrNoUpdateAvailable = errors.New("no update available")

	// ErrAssetNotFound indicates the release carries no usable zip asset.
	ErrAssetNotFound = errors.New("no zip asset found in release")

	// ErrNetworkError indicates a network-related failure.
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized indicates the release feed denied access.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the GitHub API rate limit was exceeded.
	ErrRateLimited = errors.New("GitHub API rate limited")

	// ErrReleaseNotFound indicates the repository or its releases do not exist.
	ErrReleaseNotFound = errors.New("repository or releases not found")

	// ErrDownloadFailed indicates the artifact download could not be completed.
	ErrDownloadFailed = errors.New("download failed")

	// ErrInvalidArchive indicates the artifact is corrupt or structurally invalid.
	ErrInvalidArchive = errors.New("invalid update archive")

	// ErrInstallFailed indicates the installation could not be completed.
	ErrInstallFailed = errors.New("installation failed")

	// ErrBackupFailed indicates the backup snapshot could not be created.
	ErrBackupFailed = errors.New("backup failed")

	// ErrRestoreFailed indicates the rollback could not fully restore the tree.
	ErrRestoreFailed = errors.New("restore from backup failed")
)
