//go:build ignore

// gen_bundle writes the demo bundle embedded by the nativeboot command.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/nativeboot/internal/wasmgen"
	"github.com/wippyai/nativeboot/isa"
	"github.com/wippyai/nativeboot/platform"
)

func main() {
	files := map[string][]byte{
		"libnbboot.wasm":       wasmgen.Bootstrap(int64(isa.Standard)),
		"libnbengine_std.wasm": wasmgen.Engine(),
		"libnbengine_avx.wasm": wasmgen.Engine(),
		"libnbsupport.wasm":    wasmgen.Library(),
	}

	var cfg strings.Builder
	cfg.WriteString("# Engine variants of the demo bundle. The bootstrap probe always reports std;\n")
	cfg.WriteString("# use -instruction-set to select another tier.\n\n")

	for _, tag := range []platform.Tag{platform.Linux, platform.MacOS, platform.Windows32, platform.Windows64} {
		dir := filepath.Join("bundle", "lib", string(tag))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
		for name, data := range files {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				log.Fatal(err)
			}
		}

		fmt.Fprintf(&cfg, "NativeLibraries.%s.initialise = libnbboot.wasm\n", tag)
		for _, tier := range isa.All() {
			engine := "libnbengine_std.wasm"
			if tier >= isa.AVX1 {
				engine = "libnbengine_avx.wasm"
			}
			fmt.Fprintf(&cfg, "NativeLibraries.%s.%s.libraries = %s, libnbsupport.wasm\n", tag, tier.Tag(), engine)
			fmt.Fprintf(&cfg, "NativeLibraries.%s.%s.load = %s\n", tag, tier.Tag(), engine)
		}
		cfg.WriteString("\n")
	}

	if err := os.MkdirAll(filepath.Join("bundle", "config"), 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("bundle", "config", "NativeLibraries.properties"), []byte(cfg.String()), 0o644); err != nil {
		log.Fatal(err)
	}
}
