//go:build windows

package java

import (
	"golang.org/x/sys/windows/registry"
)

// javaSoftKeys are where JDK installers register themselves
var javaSoftKeys = []string{
	`SOFTWARE\JavaSoft\JDK`,
	`SOFTWARE\JavaSoft\Java Development Kit`,
}

// registryRoots returns the JavaHome of every JDK registered under JavaSoft
func registryRoots() []string {
	var roots []string
	for _, path := range javaSoftKeys {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
		if err != nil {
			continue
		}

		versions, err := key.ReadSubKeyNames(-1)
		if err != nil {
			key.Close()
			continue
		}

		for _, version := range versions {
			sub, err := registry.OpenKey(key, version, registry.QUERY_VALUE)
			if err != nil {
				continue
			}
			if home, _, err := sub.GetStringValue("JavaHome"); err == nil && home != "" {
				roots = append(roots, home)
			}
			sub.Close()
		}
		key.Close()
	}
	return roots
}
