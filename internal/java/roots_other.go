//go:build !windows

package java

func registryRoots() []string {
	return nil
}
