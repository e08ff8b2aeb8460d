package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"multijdk/internal/config"
	"multijdk/internal/exit"
	"multijdk/internal/java"
	"multijdk/internal/launch"
	"multijdk/internal/logging"
	"multijdk/internal/picker"
	"multijdk/internal/runner"
	"multijdk/internal/selector"
	"multijdk/internal/theme"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return newApp(stdin, stdout, stderr).execute(context.Background(), args)
}

// app carries everything one invocation needs; nothing is kept in globals
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	opts    config.Options
	debug   int
	logger  *slog.Logger
	logFile *os.File

	settings *config.Settings

	// Launcher flags
	major   int
	archive string
	jvmArgs []string
	params  []string

	exitCode      int
	standardRoots func() []string
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:         stdin,
		stdout:        stdout,
		stderr:        stderr,
		v:             config.NewViper(),
		logger:        logging.NewDiscard(),
		standardRoots: java.StandardRoots,
	}
}

func (a *app) execute(ctx context.Context, args []string) int {
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		a.report(err)
		return exit.Code(err)
	}
	return a.exitCode
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "multijdk -v <major> -j <archive> [-a <jvm-arg>]... [-p <param>]... [-- params...]",
		Short: "Run a Java archive with a JDK of the requested major version",
		Long: `multijdk finds the JDKs installed on this machine, picks one whose major
version matches the request and runs the archive with it. When several JDKs
share that version you are asked to choose, and the choice can be remembered
for the archive.

The exit code is the java process's own. Launcher failures use:
  64 usage, 69 no matching JDK, 78 bad settings, 126/127 java could not run,
  130 selection cancelled.`,
		Example: `  # Run an archive on Java 17
  multijdk -v 17 -j app.jar

  # Pass JVM options and archive parameters
  multijdk -v 21 -j server.jar -a -Xmx2g -p --port -p 8080

  # Everything after -- goes to the archive unchanged
  multijdk -v 11 -j tool.jar -- --input data.csv`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: a.runLaunch,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exit.UsageError(err)
	})

	flags := root.Flags()
	flags.IntVarP(&a.major, "version", "v", 0, "major Java version to run with (required)")
	flags.StringVarP(&a.archive, "jar", "j", "", "path of the archive to run (required)")
	flags.StringArrayVarP(&a.jvmArgs, "jvm-arg", "a", nil, "argument for the JVM, repeatable")
	flags.StringArrayVarP(&a.params, "param", "p", nil, "parameter for the archive, repeatable")

	persistent := root.PersistentFlags()
	persistent.CountVarP(&a.debug, "debug", "d", "increase log verbosity (-d info, -dd debug, -ddd trace)")
	persistent.String(config.KeyPicker, "auto", "JDK picker: auto, form, fuzzy or prompt")
	persistent.String(config.KeyLogFormat, "text", "log format: text or json")
	persistent.String(config.KeyLogFile, "", "also write logs to this file as JSON")
	persistent.String(config.KeySettings, "", "settings file (default "+config.DefaultPath()+")")
	persistent.Duration(config.KeyGrace, runner.DefaultGrace, "how long to drain output after java exits")

	root.AddCommand(
		a.listCommand(),
		a.pathsCommand(),
		a.forgetCommand(),
		a.updateCommand(),
		a.versionCommand(),
	)
	return root
}

// setup resolves options and builds the logger before any command runs
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	opts, err := config.ReadOptions(a.v)
	if err != nil {
		return exit.UsageError(err)
	}
	a.opts = opts

	format, err := logging.ParseFormat(opts.LogFormat)
	if err != nil {
		return exit.UsageError(err)
	}

	cfg := logging.Config{
		Level:  logging.LevelFromVerbosity(a.debug),
		Format: format,
		Output: a.stderr,
	}
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return exit.UsageError(errors.Wrap(err, "opening log file"))
		}
		a.logFile = f
		cfg.File = f
	}

	a.logger = logging.New(cfg)
	cmd.SetContext(logging.NewContext(cmd.Context(), a.logger))
	return nil
}

func (a *app) loadSettings() (*config.Settings, error) {
	if a.settings != nil {
		return a.settings, nil
	}
	s, err := config.Load(a.opts.SettingsFile)
	if err != nil {
		return nil, exit.WithSuggestion(err, exit.Config, "Fix or delete "+a.opts.SettingsFile)
	}
	a.logger.Debug("settings loaded", "path", s.Path(), "extra_roots", len(s.SearchPaths), "remembered", len(s.PreferredJDKs))
	a.settings = s
	return s, nil
}

func (a *app) scanner(s *config.Settings) *java.Scanner {
	roots := append(a.standardRoots(), s.ExtraRoots()...)
	return java.NewScanner(roots, a.logger)
}

func (a *app) runLaunch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var missing []string
	if !cmd.Flags().Changed("version") {
		missing = append(missing, "--version")
	}
	if !cmd.Flags().Changed("jar") {
		missing = append(missing, "--jar")
	}
	if len(missing) > 0 {
		return exit.UsageError(errors.Newf("missing required flag(s): %s", strings.Join(missing, ", ")))
	}

	req, err := launch.NewRequest(a.major, a.archive, a.jvmArgs, a.params, args)
	if err != nil {
		return exit.UsageError(err)
	}

	kind, err := picker.ParseKind(a.opts.Picker)
	if err != nil {
		return exit.UsageError(err)
	}

	settings, err := a.loadSettings()
	if err != nil {
		return err
	}

	installs, err := a.scanner(settings).Scan(ctx)
	if err != nil {
		return errors.Wrap(err, "scanning for JDKs")
	}
	registry := java.NewRegistry(installs)
	a.logger.Info("JDKs discovered", "total", registry.Len(), "majors", fmt.Sprint(registry.Majors()))

	pk, err := picker.New(kind, picker.Options{Archive: req.Archive, In: a.stdin, Out: a.stderr})
	if err != nil {
		return exit.UsageError(err)
	}

	inst, err := selector.NewPolicy(settings, pk, a.logger).Select(ctx, registry.ForMajor(req.Version), req)
	if err != nil {
		if errors.Is(err, selector.ErrNoMatchingVersion) {
			return exit.WithSuggestion(err, exit.Unavailable, "Run: multijdk list, or add a directory with multijdk paths add <dir>")
		}
		return err
	}

	// Interrupts from the terminal reach the java process too; stay alive to
	// report its exit code.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	sup := runner.NewSupervisor(
		runner.Streams{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr},
		a.logger,
		runner.WithGrace(a.opts.Grace),
	)
	outcome, err := sup.Launch(ctx, inst, req)
	if err != nil {
		return err
	}

	a.exitCode = outcome.ExitCode
	return nil
}

// report prints a terminal error with its hint
func (a *app) report(err error) {
	if errors.Is(err, selector.ErrSelectionCancelled) {
		fmt.Fprintln(a.stderr, theme.WarningMessage("JDK selection cancelled"))
		return
	}
	fmt.Fprintln(a.stderr, theme.ErrorMessage(err.Error()))
	if hint := exit.Suggestion(err); hint != "" {
		fmt.Fprintln(a.stderr, "  "+theme.Faint.Render(hint))
	}
}
