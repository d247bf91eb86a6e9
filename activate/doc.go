// Package activate loads engine libraries into the process.
//
// An Activator works in one of two modes for its whole lifetime:
//
//   - Extracted: the library was copied into an extraction directory and is
//     opened by its full path.
//   - SearchPath: the library is opened by its logical name through the host
//     search mechanism. The logical name is derived from the configured file
//     name by stripping the "lib" prefix and the extension.
//
// The actual loading is delegated to a Backend. NativeBackend opens shared
// objects without cgo; WasmBackend runs engine variants compiled to
// WebAssembly. Engine symbols take and return 64-bit integers on both.
//
// Activation is idempotent by library name and safe for concurrent use.
package activate
