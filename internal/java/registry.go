package java

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Registry holds the installations discovered during one run, sorted with Compare
type Registry struct {
	installations []Installation
}

// NewRegistry sorts a copy of the scan result. Overlapping roots can report
// the same binary twice; only the first report of a path is kept.
func NewRegistry(installations []Installation) *Registry {
	seen := make(map[string]bool, len(installations))
	list := make([]Installation, 0, len(installations))
	for _, inst := range installations {
		key := pathKey(inst.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		list = append(list, inst)
	}
	Sort(list)
	return &Registry{installations: list}
}

// All returns every installation in sorted order
func (r *Registry) All() []Installation {
	out := make([]Installation, len(r.installations))
	copy(out, r.installations)
	return out
}

// ForMajor returns the installations of one major version in sorted order
func (r *Registry) ForMajor(major int) []Installation {
	var out []Installation
	for _, inst := range r.installations {
		if inst.Major == major {
			out = append(out, inst)
		}
	}
	return out
}

// Majors returns the distinct major versions present, ascending
func (r *Registry) Majors() []int {
	var majors []int
	for _, inst := range r.installations {
		if len(majors) == 0 || majors[len(majors)-1] != inst.Major {
			majors = append(majors, inst.Major)
		}
	}
	return majors
}

// Len returns the number of installations
func (r *Registry) Len() int {
	return len(r.installations)
}

func pathKey(path string) string {
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		return strings.ToLower(path)
	}
	return path
}
