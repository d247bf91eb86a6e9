// Package nativeboot selects and loads the right build of a native computation
// engine for the running machine, exactly once per process.
//
// At first use the bootstrap detects the platform, reads the library
// configuration, copies platform binaries out of an embedded bundle into a
// private temporary directory, probes the CPU instruction set through a small
// bootstrap library and then loads the best matching engine variant.
//
// # Architecture Overview
//
//	nativeboot/          Root package with the process-wide loader
//	├── loader/          Two-phase bootstrap state machine
//	├── platform/        Host platform tags and library file names
//	├── config/          NativeLibraries configuration and overrides
//	├── bundle/          Extraction of bundled libraries into a session
//	├── isa/             Instruction set tiers and resolution
//	├── activate/        Library activation, native and wasm backends
//	├── atexit/          Best-effort removal of extracted files
//	├── expr/            Expression trees sent to the engine
//	├── materialise/     Expression evaluation on the loaded engine
//	├── metrics/         Prometheus instrumentation
//	├── cmd/nativeboot/  CLI with an embedded wasm demo bundle
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Register the bundle once, then initialize from anywhere:
//
//	//go:embed all:native
//	var native embed.FS
//
//	bundle, _ := fs.Sub(native, "native")
//	err := nativeboot.Setup(loader.Options{Bundle: bundle})
//
//	if err := nativeboot.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer nativeboot.Shutdown()
//
// Extracted libraries are not removed when the process exits on its own.
// Call Shutdown before exiting, after the engine is no longer used, or the
// session directory stays behind in the temporary directory.
//
// The bundle holds config/NativeLibraries.properties and the libraries under
// lib/<platform>/<file>:
//
//	NativeLibraries.lnx.initialise = libnbboot.so
//	NativeLibraries.lnx.avx2.libraries = libnbengine_avx2.so, libnbsupport.so
//	NativeLibraries.lnx.avx2.load = libnbengine_avx2.so
//
// # Overrides
//
// NATIVEBOOT_CONFIG_FILE points at an external configuration; libraries are then
// loaded from the system search path and nothing is extracted.
// NATIVEBOOT_INSTRUCTION_SET forces a tier instead of probing.
//
// # Thread Safety
//
// Initialize may be called from any number of goroutines. Only one runs the
// protocol; the others wait for it and share its outcome. A failed run leaves
// nothing initialized and the next call starts over.
package nativeboot
