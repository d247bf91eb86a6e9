// Package isa resolves the CPU instruction-set tier that selects which engine
// variant is loaded.
package isa

import (
	"context"
	"fmt"

	"github.com/wippyai/nativeboot/errors"
)

// Tier is an ordered CPU capability level
type Tier int

const (
	Debug Tier = iota
	Standard
	SSE41
	SSE42
	AVX1
	AVX2
)

var tiers = []struct {
	tag  string
	name string
}{
	Debug:    {"dbg", "DEBUG"},
	Standard: {"std", "STANDARD"},
	SSE41:    {"sse41", "SSE41"},
	SSE42:    {"sse42", "SSE42"},
	AVX1:     {"avx1", "AVX1"},
	AVX2:     {"avx2", "AVX2"},
}

// All lists every tier in ascending order
func All() []Tier {
	out := make([]Tier, len(tiers))
	for i := range tiers {
		out[i] = Tier(i)
	}
	return out
}

// Valid reports whether t is a known tier
func (t Tier) Valid() bool { return t >= Debug && t <= AVX2 }

// Tag returns the configuration key fragment for t
func (t Tier) Tag() string {
	if !t.Valid() {
		return ""
	}
	return tiers[t].tag
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tiers[t].name
}

// Parse looks up a tier by its tag
func Parse(tag string) (Tier, error) {
	for i, d := range tiers {
		if d.tag == tag {
			return Tier(i), nil
		}
	}
	return 0, errors.InvalidInstructionSet(tag)
}

// FromCode converts the ordinal reported by the bootstrap library
func FromCode(code int64) (Tier, error) {
	t := Tier(code)
	if code < 0 || !t.Valid() {
		return 0, errors.ProbeFailed(fmt.Sprintf("unknown instruction set code %d", code), nil)
	}
	return t, nil
}

// Prober reports the best tier the hardware supports
type Prober interface {
	SupportedInstructionSet(ctx context.Context) (Tier, error)
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context) (Tier, error)

// SupportedInstructionSet calls f
func (f ProberFunc) SupportedInstructionSet(ctx context.Context) (Tier, error) { return f(ctx) }

// Resolve returns the override's tier when one is given, otherwise asks prober.
// The prober must only be reachable once the bootstrap library is active.
func Resolve(ctx context.Context, override string, prober Prober) (Tier, error) {
	if override != "" {
		return Parse(override)
	}
	if prober == nil {
		return 0, errors.NotInitialized(errors.PhaseProbe, "instruction set prober")
	}
	t, err := prober.SupportedInstructionSet(ctx)
	if err != nil {
		return 0, err
	}
	if !t.Valid() {
		return 0, errors.ProbeFailed(fmt.Sprintf("prober returned %v", t), nil)
	}
	return t, nil
}
