//go:build windows

package launch

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const utf8CodePage = 65001

// DefaultEncoding returns the charset Java uses for the active ANSI code page
func DefaultEncoding() string {
	acp := windows.GetACP()
	if acp == utf8CodePage || acp == 0 {
		return "UTF-8"
	}
	return fmt.Sprintf("Cp%d", acp)
}
