// Package platform maps the host operating system and word width onto the short
// platform tags used by native library configuration and bundle layout.
package platform

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/wippyai/nativeboot/errors"
)

// Tag is the short code identifying OS family and bitness
type Tag string

const (
	Linux     Tag = "lnx"
	Windows32 Tag = "w32"
	Windows64 Tag = "w64"
	MacOS     Tag = "osx"
)

// Supported lists every tag the loader recognizes
var Supported = []Tag{Linux, Windows64, Windows32, MacOS}

func (t Tag) String() string { return string(t) }

// Valid reports whether t is one of the supported tags
func (t Tag) Valid() bool {
	for _, s := range Supported {
		if s == t {
			return true
		}
	}
	return false
}

// LibraryFileName maps a logical library name onto the file name the host's
// dynamic loader searches for.
func (t Tag) LibraryFileName(logical string) string {
	switch t {
	case Windows32, Windows64:
		return logical + ".dll"
	case MacOS:
		return "lib" + logical + ".dylib"
	default:
		return "lib" + logical + ".so"
	}
}

// Detect maps an OS name and pointer width onto a Tag.
// Only the lowercase first three characters of osName are significant.
func Detect(osName string, bits int) (Tag, error) {
	prefix := strings.ToLower(osName)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	switch prefix {
	case "lin":
		return Linux, nil
	case "mac":
		return MacOS, nil
	case "win":
		switch bits {
		case 32:
			return Windows32, nil
		case 64:
			return Windows64, nil
		}
		return "", errors.UnsupportedPlatform(fmt.Sprintf("unsupported word size found: %d", bits), bits)
	}
	return "", errors.UnsupportedPlatform(
		fmt.Sprintf("your platform, %s %d-bit, is not supported", osName, bits), prefix)
}

// Host detects the tag of the running process
func Host() (Tag, error) {
	return Detect(OSName(runtime.GOOS), strconv.IntSize)
}

// OSName returns the conventional OS name for a GOOS value
func OSName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Mac OS X"
	case "windows":
		return "Windows"
	}
	return goos
}

// Describe returns a human-readable platform description
func Describe() string {
	return fmt.Sprintf("%s %d-bit (%s/%s)", OSName(runtime.GOOS), strconv.IntSize, runtime.GOOS, runtime.GOARCH)
}
