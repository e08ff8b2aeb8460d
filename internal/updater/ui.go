package updater

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/creativeprojects/go-selfupdate"

	"multijdk/internal/theme"
)

// Action is the user's answer to an available update
type Action string

const (
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
	ActionLater  Action = "later"
)

// PromptForUpdate asks whether to install release now, skip it or wait.
// Choosing skip is remembered in the settings.
func (u *Updater) PromptForUpdate(release *selfupdate.Release) (Action, error) {
	sizeMB := float64(release.AssetByteSize) / 1024 / 1024
	description := fmt.Sprintf("Download size: %.1f MB\n\n%s", sizeMB, truncateChangelog(release.ReleaseNotes, 400))

	var action Action
	err := huh.NewSelect[Action]().
		Title(theme.Subtitle.Render(fmt.Sprintf("Update available: %s → %s", u.currentVersion, release.Version()))).
		Description(theme.Faint.Render(description)).
		Options(
			huh.NewOption(theme.SuccessStyle.Render("Update now"), ActionUpdate),
			huh.NewOption(theme.InfoStyle.Render("Skip this version"), ActionSkip),
			huh.NewOption(theme.WarningStyle.Render("Remind me later"), ActionLater),
		).
		Value(&action).
		Run()
	if err != nil {
		return "", err
	}

	if action == ActionSkip {
		if err := u.SkipVersion(release.Version()); err != nil {
			u.logger.Warn("could not save skipped version", "error", err)
		}
	}
	return action, nil
}

// ShowUpdateSuccess prints the result of a completed update
func ShowUpdateSuccess(w io.Writer, version string) {
	title := theme.SuccessStyle.Padding(0, 2).Render("✓ Update Complete!")
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.SuccessBox.Render(title))
	fmt.Fprintf(w, "\n%s %s\n\n", theme.LabelStyle.Render("Version:"), theme.CurrentStyle.Render(version))
}

// ShowAlreadyUpToDate prints that no newer release exists
func ShowAlreadyUpToDate(w io.Writer, version string) {
	fmt.Fprintln(w, theme.SuccessMessage(fmt.Sprintf("You're already running the latest version (%s)", version)))
}

// ShowProgress prints one step of the update
func ShowProgress(w io.Writer, msg string) {
	fmt.Fprintln(w, theme.InfoStyle.Render(msg))
}

// truncateChangelog shortens release notes to about maxLen bytes, cutting at
// a line or word boundary when one is near the end
func truncateChangelog(changelog string, maxLen int) string {
	changelog = strings.TrimSpace(changelog)
	if changelog == "" {
		return "See release notes on GitHub for details."
	}
	if len(changelog) <= maxLen {
		return changelog
	}

	truncated := changelog[:maxLen]
	if idx := strings.LastIndex(truncated, "\n"); idx > maxLen/2 {
		truncated = truncated[:idx]
	} else if idx := strings.LastIndex(truncated, " "); idx > maxLen/2 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}
