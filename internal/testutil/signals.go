package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Burst generates silence with a constant-amplitude section in [start, end).
// It models a note onset followed by a decay to silence.
func Burst(length, start, end int, amplitude float64) []float64 {
	out := make([]float64, length)
	for i := max(start, 0); i < min(end, length); i++ {
		out[i] = amplitude
	}
	return out
}

// Channels builds a multichannel block by copying each signal, so the
// returned buffers can be processed in place without touching the inputs.
func Channels(signals ...[]float64) [][]float64 {
	out := make([][]float64, len(signals))
	for ch, s := range signals {
		out[ch] = append([]float64(nil), s...)
	}
	return out
}
