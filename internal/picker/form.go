package picker

import (
	"context"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"multijdk/internal/java"
	"multijdk/internal/selector"
	"multijdk/internal/theme"
)

// FormPicker shows a select list followed by the remember question
type FormPicker struct {
	opts Options
}

// NewForm creates a huh based picker
func NewForm(opts Options) *FormPicker {
	return &FormPicker{opts: opts.withDefaults()}
}

// Pick implements selector.Picker
func (f *FormPicker) Pick(ctx context.Context, candidates []java.Installation) (selector.Choice, error) {
	if len(candidates) == 0 {
		return selector.Choice{}, selector.ErrSelectionCancelled
	}

	options := make([]huh.Option[int], len(candidates))
	for i, c := range candidates {
		options[i] = huh.NewOption(Label(c), i)
	}

	index := 0
	remember := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(theme.Subtitle.Render(title(candidates))).
				Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
				Options(options...).
				Value(&index),
			huh.NewConfirm().
				Title(theme.Subtitle.Render(rememberQuestion(f.opts.Archive))).
				Affirmative(theme.SuccessStyle.Render("Yes")).
				Negative(theme.ErrorStyle.Render("No")).
				Value(&remember),
		),
	).WithInput(f.opts.In).WithOutput(f.opts.Out)

	if err := form.RunWithContext(ctx); err != nil {
		return selector.Choice{}, mapAbort(err)
	}
	if index < 0 || index >= len(candidates) {
		return selector.Choice{}, selector.ErrSelectionCancelled
	}

	return selector.Choice{Installation: candidates[index], Remember: remember}, nil
}

// confirmRemember asks only the remember question
func confirmRemember(ctx context.Context, opts Options) (bool, error) {
	remember := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(theme.Subtitle.Render(rememberQuestion(opts.Archive))).
				Affirmative(theme.SuccessStyle.Render("Yes")).
				Negative(theme.ErrorStyle.Render("No")).
				Value(&remember),
		),
	).WithInput(opts.In).WithOutput(opts.Out).RunWithContext(ctx)
	if err != nil {
		return false, mapAbort(err)
	}
	return remember, nil
}

func mapAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return errors.Mark(err, selector.ErrSelectionCancelled)
	}
	return errors.Wrap(err, "running picker form")
}
