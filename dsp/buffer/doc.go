// Package buffer provides a reusable multichannel float64 block type and
// pool for allocation-friendly block processing. DSP processors accept raw
// [][]float64 channel slices; Block is an optional convenience that helps
// callers manage allocation, interleaving, and reuse in hot paths.
package buffer
