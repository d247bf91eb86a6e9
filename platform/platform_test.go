package platform

import (
	"errors"
	"testing"

	nberrors "github.com/wippyai/nativeboot/errors"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		osName string
		bits   int
		want   Tag
	}{
		{"Linux", 64, Linux},
		{"Linux", 32, Linux},
		{"linux", 64, Linux},
		{"Mac OS X", 64, MacOS},
		{"MacOS", 64, MacOS},
		{"Windows 10", 64, Windows64},
		{"Windows XP", 32, Windows32},
		{"WINDOWS", 64, Windows64},
	}

	for _, tt := range tests {
		t.Run(tt.osName, func(t *testing.T) {
			got, err := Detect(tt.osName, tt.bits)
			if err != nil {
				t.Fatalf("Detect(%q, %d) error: %v", tt.osName, tt.bits, err)
			}
			if got != tt.want {
				t.Errorf("Detect(%q, %d) = %q, want %q", tt.osName, tt.bits, got, tt.want)
			}
		})
	}
}

func TestDetect_Unsupported(t *testing.T) {
	tests := []struct {
		osName string
		bits   int
	}{
		{"SunOS", 64},
		{"FreeBSD", 64},
		{"AIX", 64},
		{"li", 64},
		{"", 64},
		{"Windows", 16},
		{"Windows", 128},
	}

	for _, tt := range tests {
		t.Run(tt.osName, func(t *testing.T) {
			_, err := Detect(tt.osName, tt.bits)
			if err == nil {
				t.Fatalf("Detect(%q, %d) should fail", tt.osName, tt.bits)
			}
			if !errors.Is(err, nberrors.ErrUnsupportedPlatform) {
				t.Errorf("error %v is not UnsupportedPlatform", err)
			}
		})
	}
}

func TestTag_LibraryFileName(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{Linux, "libfoo.so"},
		{MacOS, "libfoo.dylib"},
		{Windows32, "foo.dll"},
		{Windows64, "foo.dll"},
	}
	for _, tt := range tests {
		if got := tt.tag.LibraryFileName("foo"); got != tt.want {
			t.Errorf("%s.LibraryFileName(foo) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestTag_Valid(t *testing.T) {
	for _, tag := range Supported {
		if !tag.Valid() {
			t.Errorf("%s should be valid", tag)
		}
	}
	if Tag("sol").Valid() {
		t.Error("sol should not be valid")
	}
}

func TestOSName(t *testing.T) {
	if OSName("darwin") != "Mac OS X" {
		t.Errorf("OSName(darwin) = %q", OSName("darwin"))
	}
	if OSName("plan9") != "plan9" {
		t.Errorf("OSName(plan9) = %q", OSName("plan9"))
	}
}
