package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	nberrors "github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/platform"
)

const sampleProperties = `# native libraries
NativeLibraries.lnx.initialise = libjinitialise.so
NativeLibraries.lnx.std.libraries = libengine_std.so , libblas_std.so
NativeLibraries.lnx.std.load = libengine_std.so
NativeLibraries.w64.initialise = jinitialise.dll
NativeLibraries.osx.initialise = libjinitialise.dylib
nativelibraries.LNX.avx2.libraries = libengine_avx2.so
NativeLibraries.lnx.avx2.load = libengine_avx2.so
Other.lnx.initialise = libignored.so
`

func sampleBundle() fstest.MapFS {
	return fstest.MapFS{
		DefaultLocation: &fstest.MapFile{Data: []byte(sampleProperties)},
	}
}

func TestLoad_Embedded(t *testing.T) {
	store, err := Load(Embedded(), sampleBundle(), platform.Linux)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Platform() != platform.Linux {
		t.Errorf("Platform = %q", store.Platform())
	}
	if store.Source().IsExternal() {
		t.Error("embedded source reported as external")
	}
	if len(store.Entries()) != 8 {
		t.Errorf("Entries = %d, want 8", len(store.Entries()))
	}
}

func TestStore_ValuesFor(t *testing.T) {
	store, err := Load(Embedded(), sampleBundle(), platform.Linux)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		category string
		want     []string
	}{
		{CategoryInitialise, []string{"libjinitialise.so"}},
		{LibrariesCategory("std"), []string{"libengine_std.so", "libblas_std.so"}},
		{LoadCategory("std"), []string{"libengine_std.so"}},
		{LibrariesCategory("avx2"), []string{"libengine_avx2.so"}},
		{LoadCategory("sse41"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got := store.ValuesFor(tt.category)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ValuesFor(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestStore_ValuesFor_OtherPlatform(t *testing.T) {
	store, err := Load(Embedded(), sampleBundle(), platform.Windows64)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := store.ValuesFor(CategoryInitialise)
	if !reflect.DeepEqual(got, []string{"jinitialise.dll"}) {
		t.Errorf("ValuesFor(initialise) = %v", got)
	}
	if got := store.ValuesFor(LibrariesCategory("std")); len(got) != 0 {
		t.Errorf("w64 should have no std libraries, got %v", got)
	}
}

func TestStore_ValuesFor_PreservesOrder(t *testing.T) {
	entries := []Entry{
		{Key: "NativeLibraries.lnx.a.libraries", Value: "z, y"},
		{Key: "NativeLibraries.lnx.b.libraries", Value: "x"},
		{Key: "NativeLibraries.lnx.c.libraries", Value: " , w,"},
	}
	store := New(entries, platform.Linux, Embedded())
	got := store.ValuesFor("libraries")
	want := []string{"z", "y", "x", "w"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ValuesFor = %v, want %v", got, want)
	}
}

func TestLoad_MissingEmbedded(t *testing.T) {
	_, err := Load(Embedded(), fstest.MapFS{}, platform.Linux)
	if !errors.Is(err, nberrors.ErrConfigUnavailable) {
		t.Fatalf("expected ConfigurationUnavailable, got %v", err)
	}

	_, err = Load(Embedded(), nil, platform.Linux)
	if !errors.Is(err, nberrors.ErrConfigUnavailable) {
		t.Fatalf("nil bundle: expected ConfigurationUnavailable, got %v", err)
	}
}

func TestLoad_MissingExternal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.properties")
	_, err := Load(External(path), nil, platform.Linux)
	if !errors.Is(err, nberrors.ErrConfigUnavailable) {
		t.Fatalf("expected ConfigurationUnavailable, got %v", err)
	}
}

func TestLoad_ExternalProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "native.properties")
	if err := os.WriteFile(path, []byte(sampleProperties), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := Load(External(path), nil, platform.MacOS)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !store.Source().IsExternal() {
		t.Error("external source not reported as external")
	}
	got := store.ValuesFor(CategoryInitialise)
	if !reflect.DeepEqual(got, []string{"libjinitialise.dylib"}) {
		t.Errorf("ValuesFor(initialise) = %v", got)
	}
}

func TestLoad_ExternalYAML(t *testing.T) {
	doc := `NativeLibraries:
  lnx:
    initialise: libjinitialise.so
    avx2:
      libraries:
        - libengine_avx2.so
        - libblas_avx2.so
      load: libengine_avx2.so
  w64:
    initialise: jinitialise.dll
`
	path := filepath.Join(t.TempDir(), "native.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := Load(External(path), nil, platform.Linux)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := store.ValuesFor(CategoryInitialise); !reflect.DeepEqual(got, []string{"libjinitialise.so"}) {
		t.Errorf("initialise = %v", got)
	}
	want := []string{"libengine_avx2.so", "libblas_avx2.so"}
	if got := store.ValuesFor(LibrariesCategory("avx2")); !reflect.DeepEqual(got, want) {
		t.Errorf("avx2.libraries = %v, want %v", got, want)
	}
	if got := store.ValuesFor(LoadCategory("avx2")); !reflect.DeepEqual(got, []string{"libengine_avx2.so"}) {
		t.Errorf("avx2.load = %v", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(path, []byte("NativeLibraries: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(External(path), nil, platform.Linux)
	if !errors.Is(err, nberrors.ErrConfigUnavailable) {
		t.Fatalf("expected ConfigurationUnavailable, got %v", err)
	}
}
