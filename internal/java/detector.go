package java

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// ReleaseFile is the metadata file at the root of every JDK
	ReleaseFile = "release"

	jdkMarker = "jdk"
	jreMarker = "jre"
)

var (
	// ErrMetadataMissing is returned when a candidate binary has no release file
	ErrMetadataMissing = errors.New("JDK release file not found")
	// ErrMetadataUnreadable is returned when a release file exists but cannot be read
	ErrMetadataUnreadable = errors.New("JDK release file unreadable")
)

// Scanner finds JDK installations beneath a set of root directories
type Scanner struct {
	roots  []string
	binary string
	logger *slog.Logger
}

// NewScanner creates a scanner over the given roots, in order
func NewScanner(roots []string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		roots:  roots,
		binary: BinaryName(),
		logger: logger,
	}
}

// Roots returns the directories the scanner walks
func (s *Scanner) Roots() []string {
	return s.roots
}

// Scan walks every root and returns the installations found. Roots that do
// not exist are skipped, and a candidate whose release file is missing or
// broken is logged and skipped. Only context cancellation stops a scan.
func (s *Scanner) Scan(ctx context.Context) ([]Installation, error) {
	installations := make([]Installation, 0)

	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return installations, err
		}

		found, err := s.scanRoot(ctx, root)
		installations = append(installations, found...)
		if err != nil {
			return installations, err
		}
	}

	s.logger.Debug("scan finished", "roots", len(s.roots), "installations", len(installations))
	return installations, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string) ([]Installation, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}

	// WalkDir does not descend into a root that is itself a symlink
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		s.logger.Debug("skipping search root", "root", root, "reason", err)
		return nil, nil
	}
	if info, err := os.Stat(resolved); err != nil || !info.IsDir() {
		s.logger.Debug("skipping search root", "root", root, "reason", "not a directory")
		return nil, nil
	}

	s.logger.Debug("scanning", "root", resolved)

	var found []Installation
	walkErr := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable subtree: keep going with the rest of the root
			s.logger.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.IsCandidate(path) {
			return nil
		}

		inst, err := s.Inspect(path)
		if err != nil {
			s.logger.Warn("skipping JDK candidate", "binary", path, "error", err)
			return nil
		}

		s.logger.Debug("found JDK", "major", inst.Major, "vendor", inst.Vendor, "path", inst.Path)
		found = append(found, inst)
		return nil
	})

	if walkErr != nil && (errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded)) {
		return found, walkErr
	}
	return found, nil
}

// IsCandidate checks if path names a java binary inside a JDK (not a JRE)
func (s *Scanner) IsCandidate(path string) bool {
	name := filepath.Base(path)
	if runtime.GOOS == "windows" {
		if !strings.EqualFold(name, s.binary) {
			return false
		}
	} else if name != s.binary {
		return false
	}

	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	dir = strings.ToLower(dir)
	return strings.Contains(dir, jdkMarker) && !strings.Contains(dir, jreMarker)
}

// Inspect builds an Installation for a java binary from the release file two
// directories above it.
func (s *Scanner) Inspect(binary string) (Installation, error) {
	path, err := filepath.Abs(binary)
	if err != nil {
		return Installation{}, errors.Wrapf(err, "resolving %s", binary)
	}

	home := filepath.Dir(filepath.Dir(path))
	releasePath := filepath.Join(home, ReleaseFile)

	data, err := os.ReadFile(releasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Installation{}, errors.Wrapf(ErrMetadataMissing, "%s", releasePath)
		}
		return Installation{}, errors.Mark(errors.Wrapf(err, "reading %s", releasePath), ErrMetadataUnreadable)
	}

	id, err := ParseRelease(string(data))
	if err != nil {
		return Installation{}, errors.Wrapf(err, "%s", releasePath)
	}

	return Installation{Major: id.Major, Path: path, Vendor: id.Vendor}, nil
}
