// Package picker asks the user which JDK to run when several installations
// share the requested major version.
package picker

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"

	"multijdk/internal/java"
	"multijdk/internal/selector"
)

// Kind selects a picker implementation
type Kind string

const (
	// Auto uses the form on a terminal and the line prompt otherwise
	Auto   Kind = "auto"
	Form   Kind = "form"
	Fuzzy  Kind = "fuzzy"
	Prompt Kind = "prompt"
)

// ErrUnknownKind is returned for a picker name that is not recognised
var ErrUnknownKind = errors.New("unknown picker")

// Kinds lists the accepted picker names
func Kinds() []Kind {
	return []Kind{Auto, Form, Fuzzy, Prompt}
}

// ParseKind validates a picker name. An empty name means Auto.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return Auto, nil
	}
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q (want auto, form, fuzzy or prompt)", s)
}

// Options are shared by all pickers
type Options struct {
	Archive string    // Archive being launched, named in the remember question
	In      io.Reader // Defaults to os.Stdin
	Out     io.Writer // Defaults to os.Stderr
}

func (o Options) withDefaults() Options {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stderr
	}
	return o
}

// New returns the picker of the given kind
func New(kind Kind, opts Options) (selector.Picker, error) {
	opts = opts.withDefaults()

	switch kind {
	case Auto, "":
		if IsTerminal(opts.In) && IsTerminal(opts.Out) {
			return NewForm(opts), nil
		}
		return NewPrompt(opts), nil
	case Form:
		return NewForm(opts), nil
	case Fuzzy:
		return NewFuzzy(opts), nil
	case Prompt:
		return NewPrompt(opts), nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%q", string(kind))
}

// IsTerminal reports whether v is a file attached to a terminal
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Label describes an installation as one line of a picker list
func Label(inst java.Installation) string {
	return fmt.Sprintf("Version: %d - Vendor: %s - Path: (%s)", inst.Major, inst.VendorOr("unknown"), inst.Path)
}

func title(candidates []java.Installation) string {
	return fmt.Sprintf("Multiple JDKs found for version %d", candidates[0].Major)
}

func rememberQuestion(archive string) string {
	return fmt.Sprintf("Remember this JDK for %s?", archive)
}
