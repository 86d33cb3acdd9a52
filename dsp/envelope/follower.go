package envelope

import (
	"fmt"

	"github.com/cwbudde/algo-midcutter/dsp/core"
	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"
)

const (
	// SmoothingFactorUp is the weight of the previous average when the new
	// squared sample is larger than it.
	SmoothingFactorUp = 0.1
	// SmoothingFactorDown is the weight of the previous average when the new
	// squared sample is smaller than or equal to it.
	SmoothingFactorDown = 0.7
)

// channelState is the running average of one channel. An unset channel has
// not seen a sample since construction or the last reset.
type channelState struct {
	average     float64
	initialized bool
}

// Follower implements an asymmetric exponential power envelope follower
// with independent state per channel.
//
// For every sample x the squared value s = x*x is blended into the running
// average p of its channel:
//
//	p' = f*p + (1-f)*s,  f = SmoothingFactorUp if s > p else SmoothingFactorDown
//
// and the sample is replaced by p'.
//
// Samples of one channel form a first-order recurrence and are always
// processed in order. Channels are independent of each other.
//
// This implementation is not thread-safe. Channel count changes and resets
// should occur outside audio processing callbacks.
type Follower struct {
	state []channelState

	// Per-channel scratch for squared magnitudes, grown to the block length.
	squares [][]float64
}

// New creates a follower sized for the given number of channels. All
// channels start uninitialized.
func New(channels int) (*Follower, error) {
	f := &Follower{}

	err := f.SetChannels(channels)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// SetChannels resizes the per-channel state. Existing channels keep their
// running average; added channels start uninitialized.
func (f *Follower) SetChannels(channels int) error {
	if channels < 1 {
		return fmt.Errorf("envelope channel count must be positive: %d", channels)
	}

	if channels <= cap(f.state) {
		old := len(f.state)
		f.state = f.state[:channels]

		for ch := old; ch < channels; ch++ {
			f.state[ch] = channelState{}
		}
	} else {
		grown := make([]channelState, channels)
		copy(grown, f.state)
		f.state = grown
	}

	if channels <= cap(f.squares) {
		f.squares = f.squares[:channels]
	} else {
		grown := make([][]float64, channels)
		copy(grown, f.squares)
		f.squares = grown
	}

	return nil
}

// Channels returns the number of channels the follower holds state for.
func (f *Follower) Channels() int { return len(f.state) }

// Average returns the running average of channel and whether the channel
// has been initialized.
func (f *Follower) Average(channel int) (float64, bool) {
	st := f.state[channel]
	return st.average, st.initialized
}

// Advance feeds one sample into channel and returns the updated running
// average. channel must be in [0, Channels()).
func (f *Follower) Advance(channel int, x float64) float64 {
	return f.advanceSquared(&f.state[channel], x*x)
}

func (f *Follower) advanceSquared(st *channelState, squared float64) float64 {
	if !st.initialized {
		st.average = squared
		st.initialized = true

		return squared
	}

	factor := SmoothingFactorDown
	if squared > st.average {
		factor = SmoothingFactorUp
	}

	st.average = nextAverage(st.average, factor, squared)

	return st.average
}

func nextAverage(prev, factor, squared float64) float64 {
	return factor*prev + (1.0-factor)*squared
}

// ProcessInPlace replaces every sample of buf with the envelope of channel,
// in temporal order.
func (f *Follower) ProcessInPlace(channel int, buf []float64) {
	if len(buf) == 0 {
		return
	}

	st := &f.state[channel]

	squares := core.EnsureLen(f.squares[channel], len(buf))
	f.squares[channel] = squares

	vecmath.MulBlock(squares, buf, buf)

	for i, sq := range squares {
		buf[i] = f.advanceSquared(st, sq)
	}
}

// ProcessBlock runs the follower over the first activeChannels buffers in
// place. Buffers beyond activeChannels are left untouched. activeChannels is
// limited to both len(buffers) and Channels().
func (f *Follower) ProcessBlock(buffers [][]float64, activeChannels int) {
	n := f.activeChannels(buffers, activeChannels)
	for ch := 0; ch < n; ch++ {
		f.ProcessInPlace(ch, buffers[ch])
	}
}

// ProcessBlockParallel is ProcessBlock with each channel processed on its
// own goroutine. Output is identical to ProcessBlock.
func (f *Follower) ProcessBlockParallel(buffers [][]float64, activeChannels int) {
	n := f.activeChannels(buffers, activeChannels)
	if n <= 1 {
		f.ProcessBlock(buffers, n)
		return
	}

	var g errgroup.Group

	for ch := 0; ch < n; ch++ {
		g.Go(func() error {
			f.ProcessInPlace(ch, buffers[ch])
			return nil
		})
	}

	// Workers always return nil; Wait only joins them.
	_ = g.Wait()
}

func (f *Follower) activeChannels(buffers [][]float64, activeChannels int) int {
	return max(min(activeChannels, len(buffers), len(f.state)), 0)
}

// Reset returns every channel to the uninitialized state.
func (f *Follower) Reset() {
	for ch := range f.state {
		f.state[ch] = channelState{}
	}
}

// ResetChannel returns a single channel to the uninitialized state.
func (f *Follower) ResetChannel(channel int) {
	f.state[channel] = channelState{}
}
