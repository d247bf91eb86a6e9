package main

import (
	"bytes"
	"context"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nativeboot/config"
	"github.com/wippyai/nativeboot/expr"
	"github.com/wippyai/nativeboot/internal/wasmgen"
	"github.com/wippyai/nativeboot/isa"
	"github.com/wippyai/nativeboot/platform"
)

func TestParseFlags(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvInstructionSet, "sse42")

	tests := []struct {
		name        string
		args        []string
		wantCommand string
		wantArgs    []string
		wantTier    string
		wantErr     bool
	}{
		{name: "defaults", args: nil, wantCommand: "init", wantTier: "sse42"},
		{name: "flag overrides env", args: []string{"-instruction-set", "avx1", "info"}, wantCommand: "info", wantTier: "avx1"},
		{name: "tree values", args: []string{"tree", "1", "2.5"}, wantCommand: "tree", wantArgs: []string{"1", "2.5"}, wantTier: "sse42"},
		{name: "unknown command", args: []string{"compile"}, wantErr: true},
		{name: "unknown backend", args: []string{"-backend", "jvm"}, wantErr: true},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommand, opts.command)
			assert.Equal(t, tt.wantTier, opts.settings.InstructionSet)
			assert.Equal(t, "wasm", opts.backend)
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, opts.args)
			} else {
				assert.Empty(t, opts.args)
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	_, err := parseFlags([]string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestEmbeddedBundleMatchesGenerator(t *testing.T) {
	bundle, err := openBundle("")
	require.NoError(t, err)

	want := map[string][]byte{
		"libnbboot.wasm":       wasmgen.Bootstrap(int64(isa.Standard)),
		"libnbengine_std.wasm": wasmgen.Engine(),
		"libnbengine_avx.wasm": wasmgen.Engine(),
		"libnbsupport.wasm":    wasmgen.Library(),
	}
	for _, tag := range platform.Supported {
		for name, data := range want {
			got, err := fs.ReadFile(bundle, "lib/"+string(tag)+"/"+name)
			require.NoError(t, err, "%s/%s", tag, name)
			assert.Equal(t, data, got, "%s/%s is stale, run go generate", tag, name)
		}

		store, err := config.Load(config.Embedded(), bundle, tag)
		require.NoError(t, err)
		assert.Equal(t, []string{"libnbboot.wasm"}, store.ValuesFor(config.CategoryInitialise))
		assert.Equal(t, []string{"libnbengine_avx.wasm"}, store.ValuesFor(config.LoadCategory("avx2")))
	}
}

func TestOpenBundleDir(t *testing.T) {
	_, err := openBundle(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = openBundle(file)
	assert.Error(t, err)

	dir := t.TempDir()
	bundle, err := openBundle(dir)
	require.NoError(t, err)
	assert.NotNil(t, bundle)
}

func requireHost(t *testing.T) {
	t.Helper()
	if _, err := platform.Host(); err != nil {
		t.Skipf("host platform: %v", err)
	}
}

func testOptions(command string, args ...string) *options {
	return &options{backend: "wasm", command: command, args: args}
}

func TestRunInit(t *testing.T) {
	requireHost(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testOptions("init"), &out))

	s := out.String()
	assert.Contains(t, s, "main_libs_loaded")
	assert.Contains(t, s, "extracted (wasm backend)")
	assert.Contains(t, s, "Tier:           STANDARD")
	assert.Contains(t, s, "Activated:      libnbboot.wasm, libnbengine_std.wasm")
}

func TestRunInitOverride(t *testing.T) {
	requireHost(t)

	opts := testOptions("init")
	opts.settings.InstructionSet = "avx2"

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "libnbengine_avx.wasm")
}

func TestRunInitInvalidOverride(t *testing.T) {
	requireHost(t)

	opts := testOptions("init")
	opts.settings.InstructionSet = "avx512"

	var out bytes.Buffer
	err := run(context.Background(), opts, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize")
}

func TestRunInfo(t *testing.T) {
	requireHost(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testOptions("info"), &out))

	s := out.String()
	assert.Contains(t, s, "Host tier:")
	assert.Contains(t, s, "Configuration:  bundle:config/NativeLibraries.properties")
	assert.Contains(t, s, "initialise = libnbboot.wasm")
	assert.Contains(t, s, "avx2   libraries = libnbengine_avx.wasm, libnbsupport.wasm; load = libnbengine_avx.wasm")
}

func TestRunTree(t *testing.T) {
	requireHost(t)

	root, err := demoTree(nil)
	require.NoError(t, err)
	data, err := expr.Encode(root)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testOptions("tree"), &out))

	s := out.String()
	assert.Contains(t, s, "Op plus (2 args)")
	assert.Contains(t, s, "Array b [2x2]")
	assert.Contains(t, s, "Engine status:  "+strconv.Itoa(len(data)+int(expr.KindOp)))
}

func TestRunTreeBadValue(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), testOptions("tree", "1", "x"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value "x"`)
}

func TestRunMetrics(t *testing.T) {
	requireHost(t)

	opts := testOptions("init")
	opts.showMetrics = true

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "nativeboot_initializations_total")
	assert.Contains(t, out.String(), "nativeboot_activations_total")
}

func TestDemoTree(t *testing.T) {
	root, err := demoTree([]string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, "sum", root.Name)
	require.Len(t, root.Args, 1)
	assert.Equal(t, []int{3}, root.Args[0].Shape)
	assert.Equal(t, []float64{1, 2, 3}, root.Args[0].Data)
}

func TestFormatFeatures(t *testing.T) {
	assert.Equal(t, "(none)", formatFeatures(nil))
	assert.Equal(t, "avx, sse42", formatFeatures(map[string]bool{"sse42": true, "avx": true, "avx2": false}))
}
