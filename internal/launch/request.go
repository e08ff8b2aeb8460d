// Package launch describes what the user asked to run.
package launch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// EncodingFlag is the JVM system property that sets the default charset
const EncodingFlag = "-Dfile.encoding="

// ErrInvalidRequest is returned for a request missing its version or archive
var ErrInvalidRequest = errors.New("invalid launch request")

// Request is one launch: which major version, which archive, and the extra
// arguments for the JVM and for the archive. JVMArgs and JarParams are sets;
// duplicates are dropped and the first occurrence wins. Trailing holds the
// arguments given after "--" and is passed after JarParams exactly as given.
type Request struct {
	Version   int
	Archive   string
	JVMArgs   []string
	JarParams []string
	Trailing  []string
}

// NewRequest validates the inputs, makes the archive path absolute and adds
// a -Dfile.encoding flag when jvmArgs does not carry one. Empty JVM arguments
// are dropped; an empty archive parameter is kept once.
func NewRequest(version int, archive string, jvmArgs, jarParams, trailing []string) (Request, error) {
	if version <= 0 {
		return Request{}, errors.Wrapf(ErrInvalidRequest, "version must be a positive integer, got %d", version)
	}

	archive = strings.TrimSpace(archive)
	if archive == "" {
		return Request{}, errors.Wrap(ErrInvalidRequest, "archive path is required")
	}
	abs, err := filepath.Abs(archive)
	if err != nil {
		return Request{}, errors.Wrapf(err, "resolving %s", archive)
	}

	args := dedupe(jvmArgs, false)
	if !HasEncodingFlag(args) {
		args = append(args, fmt.Sprintf("%s%s", EncodingFlag, DefaultEncoding()))
	}

	return Request{
		Version:   version,
		Archive:   abs,
		JVMArgs:   args,
		JarParams: dedupe(jarParams, true),
		Trailing:  append([]string(nil), trailing...),
	}, nil
}

// HasEncodingFlag checks if args already set file.encoding, ignoring case
func HasEncodingFlag(args []string) bool {
	prefix := strings.ToLower(EncodingFlag)
	for _, arg := range args {
		if strings.HasPrefix(strings.ToLower(arg), prefix) {
			return true
		}
	}
	return false
}

// Args returns the archive's arguments in order: parameters, then trailing
func (r Request) Args() []string {
	out := make([]string, 0, len(r.JarParams)+len(r.Trailing))
	out = append(out, r.JarParams...)
	return append(out, r.Trailing...)
}

func dedupe(values []string, keepEmpty bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if (v == "" && !keepEmpty) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
