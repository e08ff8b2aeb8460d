// Package selector decides which JDK installation runs an archive.
package selector

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"multijdk/internal/java"
	"multijdk/internal/launch"
)

var (
	// ErrNoMatchingVersion is returned when no installation has the requested major version
	ErrNoMatchingVersion = errors.New("no JDK found for the requested version")
	// ErrSelectionCancelled is returned when the user dismisses the picker
	ErrSelectionCancelled = errors.New("JDK selection cancelled")
)

// Preferences remembers which interpreter the user picked for an archive
type Preferences interface {
	Get(archive string) (string, bool)
	Put(archive, path string) error
}

// Choice is the picker's answer
type Choice struct {
	Installation java.Installation
	Remember     bool // Persist this choice for the archive
}

// Picker asks the user to choose among installations sharing a major version.
// Implementations return ErrSelectionCancelled when the user backs out.
type Picker interface {
	Pick(ctx context.Context, candidates []java.Installation) (Choice, error)
}

// Policy resolves a request to exactly one installation
type Policy struct {
	prefs  Preferences
	picker Picker
	logger *slog.Logger
}

// NewPolicy creates a policy. prefs may be nil when nothing is remembered.
func NewPolicy(prefs Preferences, picker Picker, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{prefs: prefs, picker: picker, logger: logger}
}

// Select picks the installation for req from candidates, which the caller has
// already narrowed to req.Version.
//
// One candidate is used as is. With several, a remembered choice for the
// archive wins; otherwise the picker is asked and, if the user says so, the
// answer is remembered before returning.
func (p *Policy) Select(ctx context.Context, candidates []java.Installation, req launch.Request) (java.Installation, error) {
	switch len(candidates) {
	case 0:
		return java.Installation{}, errors.Wrapf(ErrNoMatchingVersion, "version %d", req.Version)
	case 1:
		p.logger.Debug("single JDK matches", "major", req.Version, "path", candidates[0].Path)
		return candidates[0], nil
	}

	p.logger.Info("multiple JDKs found", "major", req.Version, "count", len(candidates))

	if p.prefs != nil {
		if path, ok := p.prefs.Get(req.Archive); ok && path != "" {
			p.logger.Debug("using remembered JDK", "archive", req.Archive, "path", path)
			return java.Installation{Major: req.Version, Path: path}, nil
		}
	}

	if p.picker == nil {
		return java.Installation{}, errors.Wrap(ErrSelectionCancelled, "no picker available")
	}

	sorted := make([]java.Installation, len(candidates))
	copy(sorted, candidates)
	java.Sort(sorted)

	choice, err := p.picker.Pick(ctx, sorted)
	if err != nil {
		if errors.Is(err, ErrSelectionCancelled) {
			return java.Installation{}, err
		}
		return java.Installation{}, errors.Wrap(err, "choosing JDK")
	}
	if choice.Installation.Path == "" {
		return java.Installation{}, ErrSelectionCancelled
	}

	p.logger.Debug("JDK chosen", "path", choice.Installation.Path, "remember", choice.Remember)

	if choice.Remember && p.prefs != nil {
		if err := p.prefs.Put(req.Archive, choice.Installation.Path); err != nil {
			// The launch still goes ahead; only the memory is lost
			p.logger.Warn("could not remember JDK choice", "archive", req.Archive, "error", err)
		}
	}

	return choice.Installation, nil
}
