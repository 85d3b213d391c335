// Package main provides the tracuu self-update entry point.
//
// Run without arguments it installs a previously downloaded update if one
// is ready, and otherwise checks the configured release feed, downloads the
// newest release and installs it. The lookup tool itself only starts the
// background check near startup and applies a ready update on exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvkhoa/tracuu/internal/config"
	"github.com/nvkhoa/tracuu/internal/logging"
	"github.com/nvkhoa/tracuu/internal/updater"
	"github.com/nvkhoa/tracuu/internal/version"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "tracuu-update",
		Short: "Check for and install tracuu updates",
		Long: `Checks the configured GitHub repository for a newer release,
downloads the release archive and installs it over the local app directory.
An update downloaded by a previous run is installed without a new check.`,
		RunE: runApply,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "tracuu.yaml", "config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check whether an update is available",
		RunE:  runCheck,
	})
}

func setup() (config.Config, *updater.Manager, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, nil, err
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		return cfg, nil, err
	}
	mgr := updater.New(updater.Config{VersionFile: cfg.VersionFile})
	return cfg, mgr, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, mgr, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rel, err := mgr.CheckUpdate(ctx)
	switch {
	case errors.Is(err, updater.ErrRepoNotConfigured):
		fmt.Println("Update checks are disabled: no repository configured in version.json.")
		return nil
	case errors.Is(err, updater.ErrNoUpdateAvailable):
		fmt.Printf("Version %s is up to date.\n", mgr.Store().Load().Version)
		return nil
	case errors.Is(err, updater.ErrAssetNotFound):
		fmt.Println("A newer release exists but carries no usable archive.")
		return nil
	case err != nil:
		return fmt.Errorf("check for update: %w", err)
	}

	fmt.Printf("Update available!\n")
	fmt.Printf("  Current version: %s\n", mgr.Store().Load().Version)
	fmt.Printf("  New version:     %s\n", rel.Version)
	if rel.PublishedAt != "" {
		fmt.Printf("  Published:       %s\n", rel.PublishedAt)
	}
	fmt.Printf("\nRun 'tracuu-update' to install.\n")
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, mgr, err := setup()
	if err != nil {
		return err
	}

	// An artifact downloaded by a previous process installs directly.
	if mgr.HasUpdateReady() {
		fmt.Println("Installing previously downloaded update...")
		if !mgr.ApplyOnExit(cfg.AppDir) {
			return errors.New("update installation failed")
		}
		if v := mgr.LatestVersion(); v != "" {
			fmt.Printf("Updated to version %s.\n", v)
		} else {
			fmt.Println("Update installed.")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rel, err := mgr.CheckUpdate(ctx)
	switch {
	case errors.Is(err, updater.ErrRepoNotConfigured):
		fmt.Println("Update checks are disabled: no repository configured in version.json.")
		return nil
	case errors.Is(err, updater.ErrNoUpdateAvailable), errors.Is(err, updater.ErrAssetNotFound):
		fmt.Println("No update available.")
		return nil
	case err != nil:
		return fmt.Errorf("check for update: %w", err)
	}

	fmt.Printf("New version %s available, downloading...\n", rel.Version)
	lastLogged := -1
	path, err := mgr.DownloadUpdate(ctx, rel.DownloadURL, func(percent int) {
		if percent%25 == 0 && percent != lastLogged {
			fmt.Printf("  %d%%\n", percent)
			lastLogged = percent
		}
	})
	if err != nil {
		return fmt.Errorf("download update: %w", err)
	}

	fmt.Println("Installing update...")
	if err := mgr.InstallUpdate(path, cfg.AppDir); err != nil {
		return fmt.Errorf("install update: %w", err)
	}
	fmt.Printf("Updated to version %s.\n", rel.Version)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
