package buffer

import "github.com/cwbudde/algo-midcutter/dsp/core"

// Block is a set of equal-length channel buffers. Channels created by New or
// Resize share one contiguous backing slice.
type Block struct {
	storage  []float64
	channels [][]float64
}

// New returns a zero-filled Block with the given shape.
func New(channels, length int) *Block {
	b := &Block{}
	b.Resize(channels, length)
	return b
}

// FromChannels wraps existing channel slices without copying.
// Mutations to the slices are visible through the Block and vice versa.
// All channels are expected to have the same length.
func FromChannels(channels [][]float64) *Block {
	return &Block{channels: channels}
}

// Channels returns the channel slices.
func (b *Block) Channels() [][]float64 {
	return b.channels
}

// Channel returns the samples of channel ch.
func (b *Block) Channel(ch int) []float64 {
	return b.channels[ch]
}

// NumChannels returns the number of channels.
func (b *Block) NumChannels() int {
	return len(b.channels)
}

// Len returns the number of samples per channel.
func (b *Block) Len() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// Resize reshapes the block, reusing backing storage when possible.
// The resized block is zero-filled.
func (b *Block) Resize(channels, length int) {
	if channels < 0 {
		channels = 0
	}
	if length < 0 {
		length = 0
	}

	b.storage = core.EnsureLen(b.storage, channels*length)
	core.Zero(b.storage)

	if cap(b.channels) >= channels {
		b.channels = b.channels[:channels]
	} else {
		b.channels = make([][]float64, channels)
	}

	for ch := range b.channels {
		b.channels[ch] = b.storage[ch*length : (ch+1)*length : (ch+1)*length]
	}
}

// ClearChannels zeroes channels from index from to the last channel.
// A negative from clears all channels.
func (b *Block) ClearChannels(from int) {
	for ch := max(from, 0); ch < len(b.channels); ch++ {
		core.Zero(b.channels[ch])
	}
}

// Deinterleave fills the block from frame-interleaved samples and returns the
// number of frames copied. Copying stops at the shorter of src and the block.
func (b *Block) Deinterleave(src []float64) int {
	n := len(b.channels)
	if n == 0 {
		return 0
	}

	frames := min(len(src)/n, b.Len())
	for i := 0; i < frames; i++ {
		for ch, samples := range b.channels {
			samples[i] = src[i*n+ch]
		}
	}

	return frames
}

// Interleave writes the block as frame-interleaved samples into dst and
// returns the number of frames written.
func (b *Block) Interleave(dst []float64) int {
	n := len(b.channels)
	if n == 0 {
		return 0
	}

	frames := min(len(dst)/n, b.Len())
	for i := 0; i < frames; i++ {
		for ch, samples := range b.channels {
			dst[i*n+ch] = samples[i]
		}
	}

	return frames
}
