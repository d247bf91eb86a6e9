// Package config loads the native library configuration and the process-level
// overrides that steer the bootstrap.
//
// The configuration maps keys of the form
//
//	NativeLibraries.<platform>.<category>
//
// to comma-separated library identifiers, where category is "initialise",
// "<tier>.libraries" or "<tier>.load". It is read once, either from the bundle's
// embedded default location or from an external file:
//
//	NativeLibraries.lnx.initialise    = libjinitialise.so
//	NativeLibraries.lnx.avx2.libraries = libengine_avx2.so, libblas_avx2.so
//	NativeLibraries.lnx.avx2.load      = libengine_avx2.so
//
// Files ending in .yaml or .yml are read as nested YAML and flattened to the same
// dotted keys; everything else is read as a Java properties file.
package config
