package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"multijdk/internal/config"
	"multijdk/internal/exit"
	"multijdk/internal/java"
	"multijdk/internal/logging"
	"multijdk/internal/picker"
	"multijdk/internal/theme"
	"multijdk/internal/updater"
)

func (a *app) listCommand() *cobra.Command {
	var major int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the JDKs multijdk can find",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.loadSettings()
			if err != nil {
				return err
			}

			scanner := a.scanner(settings)
			var installs []java.Installation
			scan := func() error {
				var err error
				installs, err = scanner.Scan(cmd.Context())
				return err
			}

			if logging.IsTTY(a.stderr) && a.debug == 0 {
				err = java.WithScanner(a.stderr, len(scanner.Roots()), scan)
			} else {
				err = scan()
			}
			if err != nil {
				return errors.Wrap(err, "scanning for JDKs")
			}

			registry := java.NewRegistry(installs)
			if major > 0 {
				registry = java.NewRegistry(registry.ForMajor(major))
			}
			a.printInstallations(registry, settings)
			return nil
		},
	}
	cmd.Flags().IntVarP(&major, "version", "v", 0, "only show this major version")
	return cmd
}

func (a *app) printInstallations(registry *java.Registry, settings *config.Settings) {
	out := a.stdout
	if registry.Len() == 0 {
		fmt.Fprintln(out, theme.WarningMessage("No JDK installations found"))
		fmt.Fprintln(out, "  "+theme.Faint.Render("Use ")+theme.Code.Render("multijdk paths add <directory>")+theme.Faint.Render(" to search more locations"))
		return
	}

	remembered := make(map[string]int)
	for _, path := range settings.PreferredJDKs {
		remembered[path]++
	}

	fmt.Fprintln(out, theme.Title.Render("Installed JDKs"))
	fmt.Fprintln(out)

	for _, major := range registry.Majors() {
		versionLabel := theme.CurrentStyle.Render("Java " + strconv.Itoa(major))
		for _, inst := range registry.ForMajor(major) {
			vendor := inst.VendorOr("unknown vendor")
			line := fmt.Sprintf("%s%s %s  %s",
				versionLabel,
				pad(versionLabel, 10),
				theme.LabelStyle.Render(vendor)+pad(theme.LabelStyle.Render(vendor), 22),
				theme.PathStyle.Render(inst.Path),
			)
			if n := remembered[inst.Path]; n > 0 {
				line += " " + theme.Faint.Render(fmt.Sprintf("(remembered for %d archive(s))", n))
			}
			fmt.Fprintln(out, line)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Faint.Render(fmt.Sprintf("%d installation(s)", registry.Len())))
}

// pad returns the spaces that bring the visible width of s up to width
func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return ""
	}
	return fmt.Sprintf("%*s", width-w, "")
}

func (a *app) pathsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Manage extra directories searched for JDKs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listPaths()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show standard and extra search directories",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return a.listPaths()
			},
		},
		&cobra.Command{
			Use:   "add <directory>",
			Short: "Search an extra directory for JDKs",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.addPath(args[0])
			},
		},
		&cobra.Command{
			Use:   "remove [directory]",
			Short: "Stop searching an extra directory",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.removePath(cmd.Context(), args)
			},
		},
	)
	return cmd
}

func (a *app) listPaths() error {
	settings, err := a.loadSettings()
	if err != nil {
		return err
	}

	out := a.stdout
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		theme.TableHeader.Width(58).Render("Path"),
		theme.TableHeader.Render("Status"),
	)
	table := func(paths []string) string {
		rows := []string{header}
		for _, p := range paths {
			status := theme.Faint.Padding(0, 1).Render("Not found")
			if isDir(p) {
				status = theme.SuccessStyle.Padding(0, 1).Render("✓ Exists")
			}
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left, theme.TableCell.Width(58).Render(p), status))
		}
		return theme.TableStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	fmt.Fprintln(out, theme.Title.Render("JDK Search Paths"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.LabelStyle.Render("Standard paths ("+runtime.GOOS+"):"))
	fmt.Fprintln(out, table(a.standardRoots()))
	fmt.Fprintln(out)

	if len(settings.SearchPaths) == 0 {
		fmt.Fprintln(out, theme.InfoMessage("No extra search paths configured"))
		fmt.Fprintln(out, "  "+theme.Faint.Render("Use ")+theme.Code.Render("multijdk paths add <directory>")+theme.Faint.Render(" to add one"))
		return nil
	}
	fmt.Fprintln(out, theme.LabelStyle.Render("Extra paths:"))
	fmt.Fprintln(out, table(settings.SearchPaths))
	return nil
}

func (a *app) addPath(dir string) error {
	settings, err := a.loadSettings()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return exit.UsageError(errors.Wrapf(err, "resolving %s", dir))
	}
	if !isDir(abs) {
		return exit.UsageError(errors.Newf("%s is not a directory", abs))
	}
	if !settings.AddSearchPath(abs) {
		fmt.Fprintln(a.stdout, theme.InfoMessage("Already searching "+abs))
		return nil
	}
	if err := settings.Save(); err != nil {
		return exit.ConfigError(errors.Wrap(err, "saving settings"))
	}

	fmt.Fprintln(a.stdout, theme.SuccessMessage("Added search path:"))
	fmt.Fprintln(a.stdout, "  "+theme.PathStyle.Render(abs))
	fmt.Fprintln(a.stdout, theme.Faint.Render("Run ")+theme.Code.Render("multijdk list")+theme.Faint.Render(" to see detected JDKs"))
	return nil
}

func (a *app) removePath(ctx context.Context, args []string) error {
	settings, err := a.loadSettings()
	if err != nil {
		return err
	}
	if len(settings.SearchPaths) == 0 {
		fmt.Fprintln(a.stdout, theme.InfoMessage("No extra search paths to remove"))
		return nil
	}

	var target string
	switch {
	case len(args) == 1:
		target = args[0]
		if abs, err := filepath.Abs(target); err == nil && !settings.HasSearchPath(target) {
			target = abs
		}
	case picker.IsTerminal(a.stdin) && picker.IsTerminal(a.stdout):
		options := make([]huh.Option[string], len(settings.SearchPaths))
		for i, p := range settings.SearchPaths {
			options[i] = huh.NewOption(p, p)
		}
		err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(theme.Subtitle.Render("Select Search Path to Remove")).
				Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
				Options(options...).
				Value(&target),
		)).RunWithContext(ctx)
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(a.stdout, theme.WarningMessage("Operation cancelled."))
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "choosing path")
		}
	default:
		return exit.UsageError(errors.New("which directory? pass it as an argument"))
	}

	if !settings.RemoveSearchPath(target) {
		fmt.Fprintln(a.stdout, theme.WarningMessage("Not a configured search path: "+target))
		return nil
	}
	if err := settings.Save(); err != nil {
		return exit.ConfigError(errors.Wrap(err, "saving settings"))
	}
	fmt.Fprintln(a.stdout, theme.SuccessMessage("Removed search path "+target))
	return nil
}

func (a *app) forgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <archive>",
		Short: "Drop the JDK remembered for an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			settings, err := a.loadSettings()
			if err != nil {
				return err
			}

			archive, err := filepath.Abs(args[0])
			if err != nil {
				return exit.UsageError(errors.Wrapf(err, "resolving %s", args[0]))
			}
			if !settings.Forget(archive) {
				fmt.Fprintln(a.stdout, theme.InfoMessage("No JDK remembered for "+archive))
				return nil
			}
			if err := settings.Save(); err != nil {
				return exit.ConfigError(errors.Wrap(err, "saving settings"))
			}
			fmt.Fprintln(a.stdout, theme.SuccessMessage("Forgot the JDK for "+archive))
			return nil
		},
	}
}

func (a *app) updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update multijdk to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.loadSettings()
			if err != nil {
				return err
			}

			upd, err := updater.NewUpdater(settings, Version, a.opts.UpdateRepo, a.logger)
			if err != nil {
				if errors.Is(err, updater.ErrUpdatesDisabled) {
					fmt.Fprintln(a.stdout, theme.WarningMessage("Updates are disabled in settings."))
					fmt.Fprintln(a.stdout, theme.Faint.Render("To enable, set update_config.enabled to true in "+settings.Path()))
					return nil
				}
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), updater.UpdateTimeout)
			defer cancel()

			updater.ShowProgress(a.stdout, "Checking for updates...")
			release, err := upd.CheckForUpdate(ctx)
			if err != nil {
				return err
			}
			if release == nil {
				updater.ShowAlreadyUpToDate(a.stdout, Version)
				return nil
			}

			action, err := upd.PromptForUpdate(release)
			if err != nil {
				fmt.Fprintln(a.stdout, theme.WarningMessage("Update cancelled."))
				return nil
			}
			switch action {
			case updater.ActionSkip:
				fmt.Fprintln(a.stdout, theme.InfoMessage("Skipped version "+release.Version()))
				return nil
			case updater.ActionLater:
				fmt.Fprintln(a.stdout, theme.InfoMessage("Update postponed"))
				return nil
			}

			updater.ShowProgress(a.stdout, "Downloading multijdk "+release.Version()+"...")
			if err := upd.PerformUpdate(ctx, release); err != nil {
				return exit.WithSuggestion(err, exit.Internal, "Download manually from https://github.com/"+upd.Repo()+"/releases")
			}
			updater.ShowUpdateSuccess(a.stdout, release.Version())
			return nil
		},
	}
	cmd.Flags().String(config.KeyUpdateRepo, config.DefaultUpdateRepo, "GitHub repository to update from (owner/name)")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the multijdk version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "%s %s\n", theme.Title.Render("multijdk"), theme.CurrentStyle.Render(Version))
			fmt.Fprintf(a.stdout, "%s %s/%s, %s\n", theme.LabelStyle.Render("Built for:"), runtime.GOOS, runtime.GOARCH, runtime.Version())
			fmt.Fprintf(a.stdout, "%s %s\n", theme.LabelStyle.Render("Settings:"), a.opts.SettingsFile)
		},
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
