// Package loader runs the two-phase bootstrap that makes the native engine
// available.
//
// # Protocol
//
// A Loader walks these states in order:
//
//	Uninitialized -> PlatformChecked -> ConfigLoaded -> InitLibsExtracted
//	-> InitLibsLoaded -> TierResolved -> MainLibsExtracted -> MainLibsLoaded
//
// MainLibsLoaded is Initialized. The init phase activates the bootstrap
// libraries listed under "initialise" so the instruction set probe becomes
// callable. The main phase extracts "<tier>.libraries" and activates
// "<tier>.load" for the resolved tier.
//
// With the embedded configuration every library is copied out of the bundle
// into a fresh extraction session and opened by path. With an external
// configuration file nothing is extracted and libraries are opened through
// the host search mechanism.
//
// # Failure
//
// Any error aborts the attempt and leaves the loader Uninitialized. Files
// already extracted stay registered for exit cleanup. The next Initialize
// call starts again from the first step with a new session.
//
// # Concurrency
//
// Initialize is serialized by a mutex. A caller arriving while another is
// mid-protocol blocks until it ends and then observes its outcome.
package loader
