//go:build !windows

package launch

import (
	"os"
	"strings"
)

// DefaultEncoding returns the codeset of the current locale, or UTF-8
func DefaultEncoding() string {
	return encodingFromLocale(os.Getenv)
}

func encodingFromLocale(getenv func(string) string) string {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		locale := getenv(name)
		if locale == "" {
			continue
		}
		// language_TERRITORY.codeset@modifier
		_, codeset, found := strings.Cut(locale, ".")
		if !found {
			break
		}
		codeset, _, _ = strings.Cut(codeset, "@")
		if codeset == "" {
			break
		}
		if strings.EqualFold(codeset, "utf8") || strings.EqualFold(codeset, "utf-8") {
			return "UTF-8"
		}
		return codeset
	}
	return "UTF-8"
}
