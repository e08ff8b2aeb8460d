package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, s.SearchPaths)
	assert.NotNil(t, s.PreferredJDKs)
	assert.True(t, s.UpdateConfig.Enabled)
	assert.Equal(t, path, s.Path())
}

func TestLoad_BOMAndSanitize(t *testing.T) {
	content := "\xEF\xBB\xBF" + `{
  "search_paths": ["  opt/jdks  ", "", ".", "opt/jdks/"],
  "preferred_jdks": {"/apps/tool.jar": "/jvm/17/bin/java", "/apps/blank.jar": " "}
}`
	s, err := Load(settingsFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Clean("opt/jdks")}, s.SearchPaths)
	assert.Equal(t, map[string]string{"/apps/tool.jar": "/jvm/17/bin/java"}, s.PreferredJDKs)
}

func TestLoad_EmptyFile(t *testing.T) {
	s, err := Load(settingsFile(t, "  \n"))
	require.NoError(t, err)
	assert.Empty(t, s.PreferredJDKs)
}

func TestLoad_Corrupt(t *testing.T) {
	_, err := Load(settingsFile(t, `{"search_paths": [`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptSettings))
}

func TestLoad_Unreadable(t *testing.T) {
	// A directory where the file should be
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCorruptSettings))
}

func TestPreferences_PutGetForget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	s, err := Load(path)
	require.NoError(t, err)

	archive := filepath.Join(string(filepath.Separator)+"apps", "tool.jar")
	require.NoError(t, s.Put(archive, "/jvm/17/bin/java"))

	got, ok := s.Get(archive)
	assert.True(t, ok)
	assert.Equal(t, "/jvm/17/bin/java", got)

	// Put saved to disk
	reloaded, err := Load(path)
	require.NoError(t, err)
	got, ok = reloaded.Get(archive)
	assert.True(t, ok)
	assert.Equal(t, "/jvm/17/bin/java", got)

	// Overwrite keeps a single entry
	require.NoError(t, reloaded.Put(archive, "/jvm/17-oracle/bin/java"))
	assert.Len(t, reloaded.PreferredJDKs, 1)

	assert.True(t, reloaded.Forget(archive))
	assert.False(t, reloaded.Forget(archive))
	_, ok = reloaded.Get(archive)
	assert.False(t, ok)
}

func TestPreferences_PutRejectsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	assert.Error(t, s.Put("", "/jvm/bin/java"))
	assert.Error(t, s.Put("/apps/a.jar", ""))
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	s.AddSearchPath("/opt/jdks")
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.json", entries[0].Name())
}

func TestSearchPaths(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	assert.True(t, s.AddSearchPath("/opt/JDKs/"))
	assert.False(t, s.AddSearchPath("/opt/jdks"), "duplicates compare case-insensitively")
	assert.False(t, s.AddSearchPath("   "))
	assert.True(t, s.HasSearchPath("/opt/jdks"))

	roots := s.ExtraRoots()
	assert.Equal(t, []string{filepath.Clean("/opt/JDKs/")}, roots)
	roots[0] = "changed"
	assert.NotEqual(t, "changed", s.SearchPaths[0])

	assert.True(t, s.RemoveSearchPath("/OPT/jdks"))
	assert.False(t, s.RemoveSearchPath("/opt/jdks"))
	assert.Empty(t, s.ExtraRoots())
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath()
	assert.Equal(t, "settings.json", filepath.Base(p))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(p)))
}

func TestOptions_Defaults(t *testing.T) {
	opts, err := ReadOptions(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "auto", opts.Picker)
	assert.Equal(t, "text", opts.LogFormat)
	assert.Equal(t, 2*time.Second, opts.Grace)
	assert.Equal(t, DefaultPath(), opts.SettingsFile)
	assert.Equal(t, DefaultUpdateRepo, opts.UpdateRepo)
}

func TestOptions_EnvironmentAndFlags(t *testing.T) {
	t.Setenv("MULTIJDK_PICKER", "prompt")
	t.Setenv("MULTIJDK_LOG_FORMAT", "json")
	t.Setenv("MULTIJDK_GRACE", "500ms")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyPicker, "auto", "")
	flags.String(KeyLogFormat, "text", "")
	require.NoError(t, flags.Parse([]string{"--picker", "fuzzy"}))

	v := NewViper()
	require.NoError(t, BindFlags(v, flags))

	opts, err := ReadOptions(v)
	require.NoError(t, err)
	assert.Equal(t, "fuzzy", opts.Picker, "flag set on the command line wins")
	assert.Equal(t, "json", opts.LogFormat, "environment beats an unset flag")
	assert.Equal(t, 500*time.Millisecond, opts.Grace)
}

func TestOptions_InvalidGrace(t *testing.T) {
	t.Setenv("MULTIJDK_GRACE", "soon")
	_, err := ReadOptions(NewViper())
	assert.Error(t, err)
}
