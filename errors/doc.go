// Package errors provides structured error types for the native bootstrap.
//
// Errors are categorized by Phase (which bootstrap step failed) and Kind (the named
// failure condition). The Error type carries the library name, filesystem or bundle
// path, a detail message and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseExtract, errors.KindExtractionFailed).
//		Library("libjinitialise.so").
//		Path("/tmp/nativeboot-1234/libjinitialise.so").
//		Detail("close destination").
//		Cause(ioErr).
//		Build()
//
// Or use convenience constructors for the named conditions:
//
//	err := errors.ResourceMissing("libfoo.so", "lib/lnx/libfoo.so")
//	err := errors.LoadFailed("libfoo.so", path, cause)
//
// Every Kind has a sentinel (ErrUnsupportedPlatform, ErrResourceMissing, ...) that
// matches any error of that Kind through errors.Is, whatever its Phase.
package errors
