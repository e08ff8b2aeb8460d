package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multijdk/internal/config"
	"multijdk/internal/exit"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type result struct {
	code   int
	stdout string
	stderr string
}

// env is an isolated settings file plus a directory of fake JDK homes
type env struct {
	t        *testing.T
	settings string
	roots    string
	archive  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	e := &env{
		t:        t,
		settings: filepath.Join(base, "config", "settings.json"),
		roots:    filepath.Join(base, "roots"),
		archive:  filepath.Join(base, "apps", "tool.jar"),
	}
	require.NoError(t, os.MkdirAll(e.roots, 0o755))
	e.writeSettings(map[string]any{"search_paths": []string{e.roots}})
	return e
}

func (e *env) writeSettings(v map[string]any) {
	e.t.Helper()
	data, err := json.Marshal(v)
	require.NoError(e.t, err)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(e.settings), 0o755))
	require.NoError(e.t, os.WriteFile(e.settings, data, 0o644))
}

func (e *env) loadSettings() *config.Settings {
	e.t.Helper()
	s, err := config.Load(e.settings)
	require.NoError(e.t, err)
	return s
}

// fakeJDK creates <roots>/<dir>/bin/java as a shell script that prints its
// name, arguments and first input line, then exits with code
func (e *env) fakeJDK(dir string, major int, vendor string, code int) string {
	e.t.Helper()
	if runtime.GOOS == "windows" {
		e.t.Skip("fake java binaries are shell scripts")
	}

	home := filepath.Join(e.roots, dir)
	bin := filepath.Join(home, "bin")
	require.NoError(e.t, os.MkdirAll(bin, 0o755))

	release := fmt.Sprintf("JAVA_VERSION=\"%d.0.2\"\n", major)
	if vendor != "" {
		release += fmt.Sprintf("IMPLEMENTOR=\"%s\"\n", vendor)
	}
	require.NoError(e.t, os.WriteFile(filepath.Join(home, "release"), []byte(release), 0o644))

	script := fmt.Sprintf(`#!/bin/sh
echo "jdk=%s"
for a in "$@"; do echo "arg=$a"; done
if read -r line; then echo "stdin=$line"; fi
echo "to stderr" >&2
exit %d
`, dir, code)
	java := filepath.Join(bin, "java")
	require.NoError(e.t, os.WriteFile(java, []byte(script), 0o755))
	return java
}

func (e *env) run(stdin string, args ...string) result {
	e.t.Helper()
	var stdout, stderr syncBuffer
	a := newApp(strings.NewReader(stdin), &stdout, &stderr)
	a.standardRoots = func() []string { return nil }

	code := a.execute(context.Background(), append([]string{"--settings=" + e.settings}, args...))
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestLaunch_MissingFlags(t *testing.T) {
	e := newEnv(t)

	r := e.run("")
	assert.Equal(t, exit.Usage, r.code)
	assert.Contains(t, r.stderr, "missing required flag(s): --version, --jar")

	r = e.run("", "-v", "17")
	assert.Equal(t, exit.Usage, r.code)
	assert.Contains(t, r.stderr, "--jar")
	assert.NotContains(t, r.stderr, "--version,")
}

func TestLaunch_BadVersion(t *testing.T) {
	e := newEnv(t)

	r := e.run("", "-v", "seventeen", "-j", e.archive)
	assert.Equal(t, exit.Usage, r.code)

	r = e.run("", "-v", "0", "-j", e.archive)
	assert.Equal(t, exit.Usage, r.code)
	assert.Contains(t, r.stderr, "positive")
}

func TestLaunch_UnknownPicker(t *testing.T) {
	e := newEnv(t)
	r := e.run("", "--picker", "dialog", "-v", "17", "-j", e.archive)
	assert.Equal(t, exit.Usage, r.code)
}

func TestLaunch_NoMatchingVersion(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)

	r := e.run("", "-v", "11", "-j", e.archive)
	assert.Equal(t, exit.Unavailable, r.code)
	assert.Contains(t, r.stderr, "no JDK found")
	assert.Contains(t, r.stderr, "multijdk list")
	assert.Empty(t, r.stdout)
}

func TestLaunch_SingleMatchRunsAndPropagatesExitCode(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 7)
	e.fakeJDK("temurin-jdk-21", 21, "Eclipse Adoptium", 0)

	r := e.run("line for java\n",
		"-v", "17", "-j", e.archive,
		"-a", "-Xmx256m", "-a", "-Dfile.encoding=ISO-8859-1",
		"-p", "--port", "-p", "8080",
		"--", "--name", "two words",
	)

	assert.Equal(t, 7, r.code)
	assert.Contains(t, r.stdout, "jdk=temurin-jdk-17\n")
	assert.Contains(t, r.stdout, "arg=-Xmx256m\narg=-Dfile.encoding=ISO-8859-1\narg=-jar\narg="+e.archive+"\narg=--port\narg=8080\narg=--name\narg=two words\n")
	assert.Contains(t, r.stdout, "stdin=line for java\n")
	assert.Contains(t, r.stderr, "to stderr")
}

func TestLaunch_ArgsAfterDoubleDashAreNotDeduplicated(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("temurin-jdk-11", 11, "Eclipse Adoptium", 0)

	r := e.run("", "-v", "11", "-j", e.archive, "-p", "--verbose", "-p", "--verbose", "--", "--min", "1", "--max", "1", "")

	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "arg="+e.archive+"\narg=--verbose\narg=--min\narg=1\narg=--max\narg=1\narg=\n")
	assert.Equal(t, 1, strings.Count(r.stdout, "arg=--verbose\n"))
}

func TestLaunch_AddsEncodingFlag(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("zulu-jdk-11", 11, "Azul Systems", 0)

	r := e.run("", "-v", "11", "-j", e.archive)
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "arg=-Dfile.encoding=")
}

func TestLaunch_PromptPickerAndRemember(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("zulu-jdk-17", 17, "Azul Systems", 0)
	temurin := e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)

	r := e.run("2\ny\nhello\n", "--picker", "prompt", "-v", "17", "-j", e.archive)
	require.Equal(t, 0, r.code, r.stderr)

	assert.Contains(t, r.stderr, "1) Version: 17 - Vendor: Azul Systems")
	assert.Contains(t, r.stderr, "2) Version: 17 - Vendor: Eclipse Adoptium")
	assert.Contains(t, r.stdout, "jdk=temurin-jdk-17")
	assert.Contains(t, r.stdout, "stdin=hello")

	remembered, ok := e.loadSettings().Get(e.archive)
	require.True(t, ok)
	assert.Equal(t, filepath.Base(filepath.Dir(filepath.Dir(temurin))), filepath.Base(filepath.Dir(filepath.Dir(remembered))))

	// The next launch uses the remembered JDK without asking
	r = e.run("", "-v", "17", "-j", e.archive)
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "jdk=temurin-jdk-17")
	assert.NotContains(t, r.stderr, "Multiple JDKs")
}

func TestLaunch_PromptWithoutRemember(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("zulu-jdk-17", 17, "Azul Systems", 0)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)

	r := e.run("1\nn\n", "-v", "17", "-j", e.archive)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "jdk=zulu-jdk-17")

	_, ok := e.loadSettings().Get(e.archive)
	assert.False(t, ok)
}

func TestLaunch_SelectionCancelled(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("zulu-jdk-17", 17, "Azul Systems", 0)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)

	r := e.run("q\n", "-v", "17", "-j", e.archive)
	assert.Equal(t, exit.Cancelled, r.code)
	assert.Contains(t, r.stderr, "JDK selection cancelled")
	assert.Empty(t, r.stdout)
}

func TestLaunch_RememberedBinaryMissing(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("zulu-jdk-17", 17, "Azul Systems", 0)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)
	e.writeSettings(map[string]any{
		"search_paths":   []string{e.roots},
		"preferred_jdks": map[string]string{e.archive: filepath.Join(e.roots, "removed-jdk-17", "bin", "java")},
	})

	r := e.run("", "-v", "17", "-j", e.archive)
	assert.Equal(t, exit.NotFound, r.code)
	assert.Contains(t, r.stderr, "removed-jdk-17")
}

func TestLaunch_CorruptSettings(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.settings, []byte("{not json"), 0o644))

	r := e.run("", "-v", "17", "-j", e.archive)
	assert.Equal(t, exit.Config, r.code)
	assert.Contains(t, r.stderr, "Fix or delete")
}

func TestLaunch_LogFile(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)
	logFile := filepath.Join(t.TempDir(), "multijdk.log")

	r := e.run("", "-dd", "--log-file", logFile, "-v", "17", "-j", e.archive)
	require.Equal(t, 0, r.code, r.stderr)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"built command"`)
	assert.Contains(t, r.stderr, "built command")
}

func TestList(t *testing.T) {
	e := newEnv(t)
	e.fakeJDK("temurin-jdk-17", 17, "Eclipse Adoptium", 0)
	e.fakeJDK("plain-jdk-21", 21, "", 0)

	r := e.run("", "list")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Java 17")
	assert.Contains(t, r.stdout, "Eclipse Adoptium")
	assert.Contains(t, r.stdout, "Java 21")
	assert.Contains(t, r.stdout, "unknown vendor")
	assert.Contains(t, r.stdout, "2 installation(s)")
	assert.Less(t, strings.Index(r.stdout, "Java 17"), strings.Index(r.stdout, "Java 21"))

	r = e.run("", "list", "-v", "21")
	assert.NotContains(t, r.stdout, "Java 17")
	assert.Contains(t, r.stdout, "1 installation(s)")
}

func TestList_Empty(t *testing.T) {
	e := newEnv(t)
	r := e.run("", "list")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "No JDK installations found")
}

func TestPaths(t *testing.T) {
	e := newEnv(t)
	extra := t.TempDir()

	r := e.run("", "paths", "add", extra)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Added search path")
	assert.True(t, e.loadSettings().HasSearchPath(extra))

	r = e.run("", "paths", "add", extra)
	assert.Contains(t, r.stdout, "Already searching")

	r = e.run("", "paths", "add", filepath.Join(extra, "missing"))
	assert.Equal(t, exit.Usage, r.code)

	r = e.run("", "paths", "list")
	assert.Contains(t, r.stdout, "Extra paths:")
	assert.Contains(t, r.stdout, extra)

	r = e.run("", "paths", "remove", extra)
	require.Equal(t, 0, r.code, r.stderr)
	assert.False(t, e.loadSettings().HasSearchPath(extra))

	// Without a terminal the directory must be named
	r = e.run("", "paths", "remove")
	assert.Equal(t, exit.Usage, r.code)
}

func TestForget(t *testing.T) {
	e := newEnv(t)
	e.writeSettings(map[string]any{
		"preferred_jdks": map[string]string{e.archive: "/jvm/17/bin/java"},
	})

	r := e.run("", "forget", e.archive)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Forgot the JDK")

	_, ok := e.loadSettings().Get(e.archive)
	assert.False(t, ok)

	r = e.run("", "forget", e.archive)
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "No JDK remembered")
}

func TestVersionCommand(t *testing.T) {
	e := newEnv(t)
	r := e.run("", "version")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "multijdk")
	assert.Contains(t, r.stdout, Version)
	assert.Contains(t, r.stdout, e.settings)
}

func TestUpdate_Disabled(t *testing.T) {
	e := newEnv(t)
	e.writeSettings(map[string]any{"update_config": map[string]any{"enabled": false}})

	r := e.run("", "update")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "Updates are disabled")
}
