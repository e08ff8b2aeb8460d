package picker

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"

	"multijdk/internal/java"
	"multijdk/internal/selector"
)

// FuzzyPicker filters candidates as the user types, then asks whether to
// remember the choice. It draws on the controlling terminal directly.
type FuzzyPicker struct {
	opts Options
}

// NewFuzzy creates a fuzzy finder based picker
func NewFuzzy(opts Options) *FuzzyPicker {
	return &FuzzyPicker{opts: opts.withDefaults()}
}

// Pick implements selector.Picker
func (f *FuzzyPicker) Pick(ctx context.Context, candidates []java.Installation) (selector.Choice, error) {
	if len(candidates) == 0 {
		return selector.Choice{}, selector.ErrSelectionCancelled
	}

	idx, err := fuzzyfinder.Find(
		candidates,
		func(i int) string {
			return Label(candidates[i])
		},
		fuzzyfinder.WithContext(ctx),
		fuzzyfinder.WithHeader(title(candidates)),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			c := candidates[i]
			return fmt.Sprintf("Version: %d\nVendor: %s\nPath: %s",
				c.Major,
				c.VendorOr("unknown"),
				c.Path,
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) || errors.Is(err, context.Canceled) {
			return selector.Choice{}, errors.Mark(err, selector.ErrSelectionCancelled)
		}
		return selector.Choice{}, errors.Wrap(err, "fuzzy finder failed")
	}

	remember, err := confirmRemember(ctx, f.opts)
	if err != nil {
		return selector.Choice{}, err
	}
	return selector.Choice{Installation: candidates[idx], Remember: remember}, nil
}
