package ripple

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-midcutter/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// rippleFloor is the relative RMS below which an envelope counts as flat.
const rippleFloor = 1e-12

// ErrEmptyEnvelope is returned when Analyze receives no samples.
var ErrEmptyEnvelope = errors.New("ripple: empty envelope")

// Result holds ripple measurement results.
type Result struct {
	Mean        float64 // Mean envelope level (power)
	RippleRMS   float64 // RMS deviation from Mean
	RippleRatio float64 // RippleRMS / Mean, 0 for a silent envelope
	DominantHz  float64 // Strongest ripple frequency, 0 for a flat envelope
	FFTSize     int     // Transform length used for DominantHz
}

// Analyzer measures envelope ripple. It caches the FFT plan and scratch
// buffers between calls of the same length.
//
// An Analyzer is not safe for concurrent use.
type Analyzer struct {
	sampleRate float64

	plan    *algofft.Plan[complex128]
	fftSize int

	residual []float64
	window   []float64
	in       []complex128
	out      []complex128
	re       []float64
	im       []float64
	power    []float64
}

// NewAnalyzer creates an Analyzer for envelopes sampled at sampleRate.
func NewAnalyzer(sampleRate float64) (*Analyzer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("ripple sample rate must be positive and finite: %f", sampleRate)
	}

	return &Analyzer{sampleRate: sampleRate}, nil
}

// SampleRate returns the analysis sample rate in Hz.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Analyze measures the ripple of envelope.
func (a *Analyzer) Analyze(envelope []float64) (Result, error) {
	n := len(envelope)
	if n == 0 {
		return Result{}, ErrEmptyEnvelope
	}

	mean := 0.0
	for _, v := range envelope {
		mean += v
	}
	mean /= float64(n)

	a.residual = core.EnsureLen(a.residual, n)

	sumSq := 0.0
	for i, v := range envelope {
		d := v - mean
		a.residual[i] = d
		sumSq += d * d
	}

	res := Result{
		Mean:      mean,
		RippleRMS: math.Sqrt(sumSq / float64(n)),
	}

	if mean > 0 {
		res.RippleRatio = res.RippleRMS / mean
	}

	if n < 2 || res.RippleRMS <= rippleFloor*math.Max(1, math.Abs(mean)) {
		return res, nil
	}

	bin, err := a.dominantBin(a.residual)
	if err != nil {
		return Result{}, err
	}

	res.FFTSize = a.fftSize
	res.DominantHz = float64(bin) * a.sampleRate / float64(a.fftSize)

	return res, nil
}

// dominantBin returns the strongest non-DC bin of the Hann-windowed residual.
func (a *Analyzer) dominantBin(residual []float64) (int, error) {
	err := a.prepare(len(residual))
	if err != nil {
		return 0, err
	}

	vecmath.MulBlockInPlace(residual, a.window)

	for i := range a.in {
		a.in[i] = 0
	}
	for i, v := range residual {
		a.in[i] = complex(v, 0)
	}

	err = a.plan.Forward(a.out, a.in)
	if err != nil {
		return 0, fmt.Errorf("ripple: forward fft: %w", err)
	}

	bins := len(a.power)
	for k := 0; k < bins; k++ {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}

	vecmath.Power(a.power, a.re, a.im)

	best := 1
	for k := 2; k < bins; k++ {
		if a.power[k] > a.power[best] {
			best = k
		}
	}

	return best, nil
}

func (a *Analyzer) prepare(n int) error {
	if len(a.window) != n {
		a.window = hann(a.window, n)
	}

	size := nextPow2(n)
	if a.plan != nil && a.fftSize == size {
		return nil
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("ripple: fft plan %d: %w", size, err)
	}

	bins := size/2 + 1

	a.plan = plan
	a.fftSize = size
	a.in = make([]complex128, size)
	a.out = make([]complex128, size)
	a.re = make([]float64, bins)
	a.im = make([]float64, bins)
	a.power = make([]float64, bins)

	return nil
}

// Analyze measures the ripple of envelope sampled at sampleRate.
func Analyze(envelope []float64, sampleRate float64) (Result, error) {
	a, err := NewAnalyzer(sampleRate)
	if err != nil {
		return Result{}, err
	}

	return a.Analyze(envelope)
}

// hann fills buf with a symmetric Hann window of length n.
func hann(buf []float64, n int) []float64 {
	buf = core.EnsureLen(buf, n)
	if n == 1 {
		buf[0] = 1
		return buf
	}

	scale := 2 * math.Pi / float64(n-1)
	for i := range buf {
		buf[i] = 0.5 - 0.5*math.Cos(scale*float64(i))
	}

	return buf
}

func nextPow2(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}
