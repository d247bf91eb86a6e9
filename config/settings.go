package config

import (
	"flag"
	"os"
	"strings"
)

// Environment variables carrying process-level overrides.
const (
	EnvConfigFile     = "NATIVEBOOT_CONFIG_FILE"
	EnvInstructionSet = "NATIVEBOOT_INSTRUCTION_SET"
)

// Settings holds process-level overrides.
type Settings struct {
	// ConfigFile is an external configuration path. When set, libraries are
	// loaded from the system search path instead of being extracted.
	ConfigFile string

	// InstructionSet forces a tier tag (dbg, std, sse41, sse42, avx1, avx2)
	// instead of probing the CPU.
	InstructionSet string
}

// SettingsFromEnv reads overrides from the environment.
func SettingsFromEnv() Settings {
	return Settings{
		ConfigFile:     strings.TrimSpace(os.Getenv(EnvConfigFile)),
		InstructionSet: strings.TrimSpace(os.Getenv(EnvInstructionSet)),
	}
}

// Bind registers command-line flags that override s. Defaults are the current
// values of s, so binding after SettingsFromEnv lets flags take precedence.
func (s *Settings) Bind(fs *flag.FlagSet) {
	fs.StringVar(&s.ConfigFile, "config-file", s.ConfigFile, "External native library configuration file")
	fs.StringVar(&s.InstructionSet, "instruction-set", s.InstructionSet, "Instruction set override (dbg, std, sse41, sse42, avx1, avx2)")
}

// Source returns the configuration source selected by s
func (s Settings) Source() Source {
	if s.ConfigFile != "" {
		return External(s.ConfigFile)
	}
	return Embedded()
}
