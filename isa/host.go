package isa

import "golang.org/x/sys/cpu"

// HostTier estimates the tier from the CPU feature flags the Go runtime sees.
// It never replaces the bootstrap probe; it is reported alongside it.
func HostTier() Tier {
	return tierFromFeatures(features{
		sse41: cpu.X86.HasSSE41,
		sse42: cpu.X86.HasSSE42,
		avx:   cpu.X86.HasAVX,
		avx2:  cpu.X86.HasAVX2,
	})
}

// HostFeatures lists the x86 feature flags relevant to tier selection
func HostFeatures() map[string]bool {
	return map[string]bool{
		"sse41": cpu.X86.HasSSE41,
		"sse42": cpu.X86.HasSSE42,
		"avx":   cpu.X86.HasAVX,
		"avx2":  cpu.X86.HasAVX2,
		"fma":   cpu.X86.HasFMA,
	}
}

type features struct {
	sse41, sse42, avx, avx2 bool
}

func tierFromFeatures(f features) Tier {
	switch {
	case f.avx2 && f.avx:
		return AVX2
	case f.avx:
		return AVX1
	case f.sse42:
		return SSE42
	case f.sse41:
		return SSE41
	}
	return Standard
}
