package picker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"multijdk/internal/java"
	"multijdk/internal/selector"
)

// PromptPicker is a numbered list answered on a line of input. It works
// without a terminal, e.g. when input is piped.
type PromptPicker struct {
	opts Options
}

// NewPrompt creates a line based picker
func NewPrompt(opts Options) *PromptPicker {
	return &PromptPicker{opts: opts.withDefaults()}
}

// Pick implements selector.Picker. "q" or end of input cancels.
func (p *PromptPicker) Pick(ctx context.Context, candidates []java.Installation) (selector.Choice, error) {
	if len(candidates) == 0 {
		return selector.Choice{}, selector.ErrSelectionCancelled
	}
	if err := ctx.Err(); err != nil {
		return selector.Choice{}, errors.Mark(err, selector.ErrSelectionCancelled)
	}

	out := p.opts.Out
	fmt.Fprintf(out, "%s:\n", title(candidates))
	for i, c := range candidates {
		fmt.Fprintf(out, "  %d) %s\n", i+1, Label(c))
	}

	var chosen java.Installation
	for {
		fmt.Fprintf(out, "Choose a JDK [1-%d] (q to cancel): ", len(candidates))
		line, err := readLine(p.opts.In)
		if err != nil && strings.TrimSpace(line) == "" {
			fmt.Fprintln(out)
			return selector.Choice{}, endOfInput(err)
		}

		answer := strings.TrimSpace(line)
		if strings.EqualFold(answer, "q") || strings.EqualFold(answer, "quit") {
			return selector.Choice{}, selector.ErrSelectionCancelled
		}
		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n < 1 || n > len(candidates) {
			fmt.Fprintf(out, "Invalid choice %q\n", answer)
			continue
		}
		chosen = candidates[n-1]
		break
	}

	for {
		fmt.Fprintf(out, "%s [Y/n]: ", rememberQuestion(p.opts.Archive))
		line, err := readLine(p.opts.In)
		if err != nil && line == "" {
			// Nothing more to read; take the default
			fmt.Fprintln(out)
			return selector.Choice{Installation: chosen, Remember: true}, nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return selector.Choice{Installation: chosen, Remember: true}, nil
		case "n", "no":
			return selector.Choice{Installation: chosen, Remember: false}, nil
		}
		fmt.Fprintln(out, "Please answer y or n")
	}
}

// readLine reads up to and including the next newline one byte at a time.
// Input after the answer stays unread for the java process.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return strings.TrimSuffix(sb.String(), "\r"), err
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.Wrap(selector.ErrSelectionCancelled, "end of input")
	}
	return errors.Wrap(err, "reading choice")
}
