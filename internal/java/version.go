package java

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/magiconair/properties"
)

// Keys read from a JDK release file
const (
	versionKey = "JAVA_VERSION"
	vendorKey  = "IMPLEMENTOR"
)

// ErrMalformedMetadata is returned when a release file has no usable JAVA_VERSION
var ErrMalformedMetadata = errors.New("malformed JDK metadata")

// Installation represents one discovered JDK
type Installation struct {
	Major  int    // Normalized major version (e.g. 8, 17, 21)
	Path   string // Absolute path to the java binary
	Vendor string // IMPLEMENTOR from the release file, empty when unknown
}

// HasVendor reports whether the release file named an implementor
func (i Installation) HasVendor() bool {
	return i.Vendor != ""
}

// VendorOr returns the vendor, or fallback when the vendor is unknown
func (i Installation) VendorOr(fallback string) string {
	if i.Vendor == "" {
		return fallback
	}
	return i.Vendor
}

// Compare orders installations by major version, then vendor ignoring case.
// An installation without a vendor sorts before one with a vendor.
func Compare(a, b Installation) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	switch {
	case a.Vendor == "" && b.Vendor == "":
		return 0
	case a.Vendor == "":
		return -1
	case b.Vendor == "":
		return 1
	}
	return strings.Compare(strings.ToLower(a.Vendor), strings.ToLower(b.Vendor))
}

// Sort sorts installations in place using Compare. Equal elements keep their order.
func Sort(installations []Installation) {
	slices.SortStableFunc(installations, Compare)
}

// Identity is what a release file says about its JDK
type Identity struct {
	Major  int
	Vendor string
}

// ParseRelease extracts the major version and vendor from the contents of a
// JDK release file.
func ParseRelease(text string) (Identity, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes([]byte(text))
	if err != nil {
		return Identity{}, errors.Mark(errors.Wrap(err, "parsing release file"), ErrMalformedMetadata)
	}

	raw, ok := props.Get(versionKey)
	if !ok {
		return Identity{}, errors.Wrapf(ErrMalformedMetadata, "%s not set", versionKey)
	}

	major, err := NormalizeVersion(raw)
	if err != nil {
		return Identity{}, err
	}

	vendor, _ := props.Get(vendorKey)
	return Identity{Major: major, Vendor: unquote(vendor)}, nil
}

// NormalizeVersion converts a raw JAVA_VERSION value to its major version.
//
// Legacy "1.X..." strings map to X. Otherwise the digits of the string are
// taken: a leading 9 is Java 9, anything else is the leading one or two
// digits ("17.0.9" is 17, "21.0.2" is 21).
func NormalizeVersion(raw string) (int, error) {
	version := unquote(raw)

	if rest, ok := strings.CutPrefix(version, "1."); ok {
		if rest == "" || !isDigit(rest[0]) || rest[0] == '0' {
			return 0, errors.Wrapf(ErrMalformedMetadata, "version %q", raw)
		}
		return int(rest[0] - '0'), nil
	}

	digits := digitsOf(version)
	if digits == "" {
		return 0, errors.Wrapf(ErrMalformedMetadata, "version %q has no digits", raw)
	}
	if digits[0] == '9' {
		return 9, nil
	}

	major, err := strconv.Atoi(digits[:min(2, len(digits))])
	if err != nil || major <= 0 {
		return 0, errors.Wrapf(ErrMalformedMetadata, "version %q", raw)
	}
	return major, nil
}

func unquote(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}

func digitsOf(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
