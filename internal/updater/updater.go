// Package updater replaces the multijdk binary with the latest GitHub release.
package updater

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creativeprojects/go-selfupdate"

	"multijdk/internal/config"
)

const (
	// ChecksumFile is the release asset holding SHA256 sums
	ChecksumFile = "SHA256SUMS.txt"

	// UpdateTimeout is maximum time for update operations
	UpdateTimeout = 5 * time.Minute
)

// ErrUpdatesDisabled is returned when update_config.enabled is false
var ErrUpdatesDisabled = errors.New("updates are disabled in settings")

// Updater checks for and applies releases
type Updater struct {
	settings       *config.Settings
	currentVersion string
	repo           string
	selfUpdater    *selfupdate.Updater
	logger         *slog.Logger
}

// NewUpdater creates an updater for the release repository repo ("owner/name")
func NewUpdater(settings *config.Settings, version, repo string, logger *slog.Logger) (*Updater, error) {
	if !settings.UpdateConfig.Enabled {
		return nil, ErrUpdatesDisabled
	}
	if repo == "" {
		repo = config.DefaultUpdateRepo
	}
	if logger == nil {
		logger = slog.Default()
	}

	su, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: ChecksumFile},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating updater")
	}

	return &Updater{
		settings:       settings,
		currentVersion: cleanVersion(version),
		repo:           repo,
		selfUpdater:    su,
		logger:         logger,
	}, nil
}

// Repo returns the release repository
func (u *Updater) Repo() string {
	return u.repo
}

// CheckForUpdate queries GitHub for the latest release. It returns nil when
// the running version is current or the user skipped the latest one.
// Development builds are never offered an update.
func (u *Updater) CheckForUpdate(ctx context.Context) (*selfupdate.Release, error) {
	if u.currentVersion == "dev" {
		u.logger.Info("development build, not checking for updates")
		return nil, nil
	}

	latest, found, err := u.selfUpdater.DetectLatest(ctx, selfupdate.ParseSlug(u.repo))
	if err != nil {
		return nil, errors.Wrap(err, "checking for updates")
	}
	if !found {
		return nil, errors.Newf("no releases found in %s", u.repo)
	}

	u.settings.UpdateConfig.LastCheck = time.Now()
	if err := u.settings.Save(); err != nil {
		u.logger.Warn("could not save last update check", "error", err)
	}

	if latest.LessOrEqual(u.currentVersion) {
		return nil, nil
	}
	if u.settings.UpdateConfig.SkipVersion == latest.Version() {
		u.logger.Info("latest version was skipped", "version", latest.Version())
		return nil, nil
	}
	return latest, nil
}

// PerformUpdate downloads release and replaces the running executable,
// restoring the previous binary if that fails
func (u *Updater) PerformUpdate(ctx context.Context, release *selfupdate.Release) error {
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return errors.Wrap(err, "locating executable")
	}

	backup := exe + ".backup"
	if err := copyFile(exe, backup); err != nil {
		return errors.Wrap(err, "creating backup")
	}
	defer os.Remove(backup)

	if err := selfupdate.UpdateTo(ctx, release.AssetURL, release.AssetName, exe); err != nil {
		if rollbackErr := os.Rename(backup, exe); rollbackErr != nil {
			return errors.WithSecondaryError(errors.Wrap(err, "update failed and rollback failed"), rollbackErr)
		}
		return errors.Wrap(err, "update failed (rolled back)")
	}

	u.logger.Info("updated", "from", u.currentVersion, "to", release.Version())
	return nil
}

// SkipVersion marks a version as skipped by the user
func (u *Updater) SkipVersion(version string) error {
	u.settings.UpdateConfig.SkipVersion = version
	return u.settings.Save()
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}

// cleanVersion removes 'v' prefix if present for consistent comparison
func cleanVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}
