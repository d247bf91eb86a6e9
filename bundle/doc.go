// Package bundle extracts platform-specific libraries from an embedded resource
// bundle into a private, ephemeral directory.
//
// A bundle is any fs.FS, typically an embed.FS, laid out as
//
//	config/NativeLibraries.properties
//	lib/<platform>/<library>
//
// Each initialization attempt owns one Session: a uniquely named temporary
// directory whose contents are registered with an atexit.Registry so they are
// removed when the process shuts down.
package bundle
