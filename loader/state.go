package loader

import "fmt"

// State is a bootstrap protocol step
type State int

const (
	Uninitialized State = iota
	PlatformChecked
	ConfigLoaded
	InitLibsExtracted
	InitLibsLoaded
	TierResolved
	MainLibsExtracted
	MainLibsLoaded

	Initialized = MainLibsLoaded
)

var stateNames = [...]string{
	Uninitialized:     "uninitialized",
	PlatformChecked:   "platform_checked",
	ConfigLoaded:      "config_loaded",
	InitLibsExtracted: "init_libs_extracted",
	InitLibsLoaded:    "init_libs_loaded",
	TierResolved:      "tier_resolved",
	MainLibsExtracted: "main_libs_extracted",
	MainLibsLoaded:    "main_libs_loaded",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Observer receives every state transition. It runs with the loader locked
// and must not call back into the loader.
type Observer interface {
	StateChanged(from, to State)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(from, to State)

// StateChanged calls f
func (f ObserverFunc) StateChanged(from, to State) { f(from, to) }
