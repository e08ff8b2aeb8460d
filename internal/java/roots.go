package java

import (
	"os"
	"path/filepath"
	"runtime"
)

// BinaryName returns the file name of the java launcher on this platform
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// StandardRoots returns the directories vendors install JDKs into on this
// platform. Roots that do not exist are left in; the scanner skips them.
func StandardRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	roots := standardRoots(runtime.GOOS, os.Getenv, home)
	return append(roots, registryRoots()...)
}

func standardRoots(goos string, getenv func(string) string, home string) []string {
	var roots []string
	add := func(base string, elem ...string) {
		if base == "" {
			return
		}
		roots = append(roots, filepath.Join(append([]string{base}, elem...)...))
	}

	switch goos {
	case "windows":
		programFiles := getenv("ProgramW6432")
		if programFiles == "" {
			programFiles = getenv("ProgramFiles")
		}
		programFilesX86 := getenv("ProgramFiles(x86)")
		localAppData := getenv("LOCALAPPDATA")

		add(programFiles, "Java")
		add(programFilesX86, "Java")
		add(programFiles, "Amazon Corretto")
		add(programFiles, "Eclipse Adoptium")
		add(programFiles, "Eclipse Foundation")
		add(programFiles, "Zulu")
		add(localAppData, "Programs", "Eclipse Adoptium")
		add(localAppData, "Programs", "Microsoft")
		add(programFiles, "ojdkbuild")
		add(programFiles, "Microsoft")
	case "darwin":
		add("/Library/Java/JavaVirtualMachines")
		add(home, "Library", "Java", "JavaVirtualMachines")
		add(home, ".sdkman", "candidates", "java")
	default:
		add("/usr/lib/jvm")
		add("/usr/java")
		add("/opt/java")
		add("/opt/jdk")
		add(home, ".jdks")
		add(home, ".sdkman", "candidates", "java")
	}

	return roots
}
