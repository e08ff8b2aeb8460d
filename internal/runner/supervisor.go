// Package runner starts the java process and relays its standard streams.
//
// A launch runs four things at once: one relay per stream (parent stdin to
// child, child stdout to parent, child stderr to parent) and the wait for the
// child to exit. The exit status is reported as soon as the child is gone;
// output relays get a short grace period to flush what is left in their pipes
// and the stdin relay is abandoned if it is still blocked on the parent's
// input.
package runner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"multijdk/internal/java"
	"multijdk/internal/launch"
)

// DefaultGrace is how long output relays may keep draining after the child exits
const DefaultGrace = 2 * time.Second

var (
	// ErrSpawnFailure is returned when the child process cannot be started
	ErrSpawnFailure = errors.New("could not start java process")
	// ErrRelayIO marks a relay that stopped because of an I/O error
	ErrRelayIO = errors.New("stream relay failed")
)

// Relay names one of the three stream relays
type Relay string

// The three relays of a launch, named after the stream they carry
const (
	RelayStdin  Relay = "stdin"
	RelayStdout Relay = "stdout"
	RelayStderr Relay = "stderr"
)

// Streams are the parent's ends of the relays
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StdStreams returns the process's own standard streams
func StdStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// RelayFailure records a relay that ended abnormally
type RelayFailure struct {
	Relay Relay
	Err   error
}

// Outcome is the result of a finished child process
type Outcome struct {
	ExitCode int
	Failures []RelayFailure
}

// Failed returns the error of the given relay, or nil if it ended cleanly
func (o Outcome) Failed(relay Relay) error {
	for _, f := range o.Failures {
		if f.Relay == relay {
			return f.Err
		}
	}
	return nil
}

// Supervisor launches java processes and relays their streams
type Supervisor struct {
	streams Streams
	grace   time.Duration
	logger  *slog.Logger
}

// Option configures a Supervisor
type Option func(*Supervisor)

// WithGrace sets how long output relays may run after the child exits
func WithGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.grace = d
		}
	}
}

// NewSupervisor creates a supervisor relaying to and from streams
func NewSupervisor(streams Streams, logger *slog.Logger, opts ...Option) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{streams: streams, grace: DefaultGrace, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Command builds the argv that runs req with inst:
// java [jvm args...] -jar <archive> [params...]
func Command(inst java.Installation, req launch.Request) []string {
	params := req.Args()
	argv := make([]string, 0, len(req.JVMArgs)+len(params)+3)
	argv = append(argv, inst.Path)
	argv = append(argv, req.JVMArgs...)
	argv = append(argv, "-jar", req.Archive)
	argv = append(argv, params...)
	return argv
}

// Launch runs req with inst and blocks until the java process exits
func (s *Supervisor) Launch(ctx context.Context, inst java.Installation, req launch.Request) (Outcome, error) {
	s.logger.DebugContext(ctx, "running archive", "archive", req.Archive, "jdk", inst.Path, "major", inst.Major)
	if len(req.JVMArgs) > 0 {
		s.logger.DebugContext(ctx, "jvm arguments", "args", strings.Join(req.JVMArgs, " "))
	}
	if params := req.Args(); len(params) > 0 {
		s.logger.DebugContext(ctx, "archive parameters", "params", strings.Join(params, " "))
	}
	return s.Run(ctx, Command(inst, req))
}

// Run starts argv, relays its streams and waits for it to exit. The returned
// error is non-nil only when the process could not be started or waited for;
// relay problems are reported in the Outcome.
func (s *Supervisor) Run(ctx context.Context, argv []string) (Outcome, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Outcome{ExitCode: -1}, errors.Wrap(ErrSpawnFailure, "empty command")
	}
	s.logger.DebugContext(ctx, "built command", "command", strings.Join(argv, " "))

	p, err := openPipes()
	if err != nil {
		return Outcome{ExitCode: -1}, errors.Mark(errors.Wrap(err, "creating stream pipes"), ErrSpawnFailure)
	}
	defer p.closeParentEnds()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = p.stdinR
	cmd.Stdout = p.stdoutW
	cmd.Stderr = p.stderrW

	startErr := cmd.Start()
	// The child holds its own copies now
	p.closeChildEnds()
	if startErr != nil {
		return Outcome{ExitCode: -1}, errors.Mark(errors.Wrapf(startErr, "starting %s", argv[0]), ErrSpawnFailure)
	}
	s.logger.DebugContext(ctx, "process started", "pid", cmd.Process.Pid)

	results := make(chan RelayFailure, 3)
	report := func(relay Relay, err error) {
		if err != nil {
			results <- RelayFailure{Relay: relay, Err: errors.Mark(err, ErrRelayIO)}
		}
	}

	var outputs errgroup.Group
	outputs.Go(func() error {
		err := s.pump(RelayStdout, writerOrDiscard(s.streams.Stdout), p.stdoutR)
		report(RelayStdout, err)
		return err
	})
	outputs.Go(func() error {
		err := s.pump(RelayStderr, writerOrDiscard(s.streams.Stderr), p.stderrR)
		report(RelayStderr, err)
		return err
	})

	if s.streams.Stdin != nil {
		go func() {
			err := s.feed(p.stdinW, s.streams.Stdin)
			p.closeStdin()
			// Writes fail once the child stops reading or the pipe is closed
			// behind a finished child
			if err != nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, syscall.EPIPE) {
				report(RelayStdin, err)
			}
		}()
	} else {
		p.closeStdin()
	}

	waitErr := cmd.Wait()
	code, waitErr := exitCode(waitErr)
	s.logger.DebugContext(ctx, "process finished", "exit_code", code)

	// The stdin relay may be blocked on the parent's input forever; cut it
	// loose rather than wait for it.
	p.closeStdin()
	s.join(ctx, &outputs, p)

	outcome := Outcome{ExitCode: code, Failures: drain(results)}
	for _, f := range outcome.Failures {
		s.logger.WarnContext(ctx, "stream relay failed", "relay", string(f.Relay), "error", f.Err)
	}

	if waitErr != nil {
		return outcome, errors.Wrap(waitErr, "waiting for java process")
	}
	return outcome, nil
}

// join waits for the output relays to reach EOF. A descendant of the child
// can keep the pipes open after the child is gone, so after the grace period
// the read ends are closed to make the relays return.
func (s *Supervisor) join(ctx context.Context, outputs *errgroup.Group, p *pipes) {
	joined := make(chan struct{})
	go func() {
		_ = outputs.Wait()
		close(joined)
	}()

	select {
	case <-joined:
		return
	case <-time.After(s.grace):
	}

	s.logger.WarnContext(ctx, "output still open after java exited, closing it", "grace", s.grace)
	p.closeOutputs()

	select {
	case <-joined:
	case <-time.After(s.grace):
		s.logger.WarnContext(ctx, "abandoning output relays")
	}
}

func drain(results chan RelayFailure) []RelayFailure {
	var failures []RelayFailure
	for {
		select {
		case f := <-results:
			failures = append(failures, f)
		default:
			return failures
		}
	}
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			// Same convention as the shell for a child killed by a signal
			return 128 + int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
