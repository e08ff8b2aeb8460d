package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName names the settings directory
const AppName = "multijdk"

// ErrCorruptSettings is returned when the settings file is not valid JSON
var ErrCorruptSettings = errors.New("settings file is corrupt")

// Settings holds what multijdk remembers between runs
type Settings struct {
	SearchPaths   []string          `json:"search_paths"`   // Extra roots scanned for JDKs
	PreferredJDKs map[string]string `json:"preferred_jdks"` // Archive path -> java binary
	UpdateConfig  UpdateConfig      `json:"update_config"`  // Self-update configuration
	path          string
}

// UpdateConfig holds settings for the update command
type UpdateConfig struct {
	Enabled     bool      `json:"enabled"`      // Master toggle for update functionality
	LastCheck   time.Time `json:"last_check"`   // Last time an update check was performed
	SkipVersion string    `json:"skip_version"` // Version user chose to skip
}

// DefaultPath returns $XDG_CONFIG_HOME/multijdk/settings.json
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "settings.json")
}

// Load reads the settings at path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}

	s := &Settings{
		SearchPaths:   make([]string, 0),
		PreferredJDKs: make(map[string]string),
		UpdateConfig:  UpdateConfig{Enabled: true},
		path:          path,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading settings %s", path)
	}

	// Remove BOM if present (UTF-8 BOM is EF BB BF)
	// This handles files created by PowerShell with Set-Content -Encoding UTF8
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, s); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parsing settings %s", path), ErrCorruptSettings)
		}
	}
	if s.PreferredJDKs == nil {
		s.PreferredJDKs = make(map[string]string)
	}

	// Sanitize: drop empty and duplicate search paths
	cleaned := make([]string, 0, len(s.SearchPaths))
	for _, p := range s.SearchPaths {
		p = cleanPath(p)
		if p == "" || containsFold(cleaned, p) {
			continue
		}
		cleaned = append(cleaned, p)
	}
	s.SearchPaths = cleaned

	for archive, java := range s.PreferredJDKs {
		if strings.TrimSpace(java) == "" {
			delete(s.PreferredJDKs, archive)
		}
	}

	s.path = path
	return s, nil
}

// Path returns where the settings are stored
func (s *Settings) Path() string {
	return s.path
}

// Save writes the settings to disk, replacing the previous file in one step
func (s *Settings) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating settings directory")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return errors.Wrap(err, "creating settings file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing settings")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "writing settings")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing settings")
}

// Get returns the java binary remembered for archive
func (s *Settings) Get(archive string) (string, bool) {
	key, ok := s.preferenceKey(archive)
	if !ok {
		return "", false
	}
	return s.PreferredJDKs[key], true
}

// Put remembers java for archive and saves the settings
func (s *Settings) Put(archive, java string) error {
	archive = cleanPath(archive)
	if archive == "" || strings.TrimSpace(java) == "" {
		return errors.New("archive and java path are required")
	}
	if key, ok := s.preferenceKey(archive); ok {
		delete(s.PreferredJDKs, key)
	}
	s.PreferredJDKs[archive] = java
	return s.Save()
}

// Forget drops the remembered java for archive. It reports whether there
// was one; the caller saves.
func (s *Settings) Forget(archive string) bool {
	key, ok := s.preferenceKey(archive)
	if ok {
		delete(s.PreferredJDKs, key)
	}
	return ok
}

func (s *Settings) preferenceKey(archive string) (string, bool) {
	archive = cleanPath(archive)
	if archive == "" {
		return "", false
	}
	if _, ok := s.PreferredJDKs[archive]; ok {
		return archive, true
	}
	if runtime.GOOS == "windows" {
		for k := range s.PreferredJDKs {
			if strings.EqualFold(k, archive) {
				return k, true
			}
		}
	}
	return "", false
}

// ExtraRoots returns the user's search paths
func (s *Settings) ExtraRoots() []string {
	roots := make([]string, len(s.SearchPaths))
	copy(roots, s.SearchPaths)
	return roots
}

// AddSearchPath adds a search path for auto-detection. It reports whether
// the path was new.
func (s *Settings) AddSearchPath(path string) bool {
	path = cleanPath(path)
	if path == "" || containsFold(s.SearchPaths, path) {
		return false
	}
	s.SearchPaths = append(s.SearchPaths, path)
	return true
}

// RemoveSearchPath removes a search path and reports whether it was present
func (s *Settings) RemoveSearchPath(path string) bool {
	path = cleanPath(path)
	for i, p := range s.SearchPaths {
		if strings.EqualFold(p, path) {
			s.SearchPaths = append(s.SearchPaths[:i], s.SearchPaths[i+1:]...)
			return true
		}
	}
	return false
}

// HasSearchPath checks if a path exists in search paths
func (s *Settings) HasSearchPath(path string) bool {
	return containsFold(s.SearchPaths, cleanPath(path))
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

func containsFold(list []string, path string) bool {
	for _, p := range list {
		if strings.EqualFold(p, path) {
			return true
		}
	}
	return false
}
