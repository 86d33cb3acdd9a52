package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-midcutter/dsp/buffer"
	"github.com/cwbudde/algo-midcutter/dsp/core"
	"github.com/cwbudde/algo-midcutter/host"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

var errInvalidWAV = errors.New("not a valid WAV file")

// result holds the processed envelope, interleaved, plus its format.
type result struct {
	channels   int
	frames     int
	sampleRate int
	bitDepth   int
	samples    []float64
}

// channel returns the envelope of channel ch.
func (r result) channel(ch int) []float64 {
	out := make([]float64, r.frames)
	for i := range out {
		out[i] = r.samples[i*r.channels+ch]
	}
	return out
}

func processFile(opts options, log logrus.FieldLogger) (result, error) {
	res, err := readWAV(opts.input)
	if err != nil {
		return result{}, err
	}

	layout := layoutFor(res.channels)
	if !host.IsLayoutSupported(layout, layout) {
		return result{}, fmt.Errorf("unsupported channel layout: %d channels", res.channels)
	}

	proc, err := host.New(
		host.WithLogger(log),
		host.WithParallelChannels(opts.parallel),
	)
	if err != nil {
		return result{}, err
	}

	err = proc.Prepare(core.ApplyProcessorOptions(
		core.WithSampleRate(float64(res.sampleRate)),
		core.WithBlockSize(opts.blockSize),
		core.WithChannels(res.channels),
	))
	if err != nil {
		return result{}, err
	}
	defer proc.Release()

	err = processInterleaved(proc, res.samples, res.channels, opts.blockSize)
	if err != nil {
		return result{}, err
	}

	err = writeWAV(opts.output, res)
	if err != nil {
		return result{}, err
	}

	return res, nil
}

// processInterleaved runs proc over interleaved samples block by block.
func processInterleaved(proc *host.Processor, samples []float64, channels, blockSize int) error {
	pool := buffer.NewPool()
	step := blockSize * channels

	for start := 0; start < len(samples); start += step {
		chunk := samples[start:min(start+step, len(samples))]

		block := pool.Get(channels, len(chunk)/channels)
		block.Deinterleave(chunk)

		err := proc.Process(block, channels)
		if err != nil {
			pool.Put(block)
			return err
		}

		block.Interleave(chunk)
		pool.Put(block)
	}

	return nil
}

func layoutFor(channels int) host.Layout {
	switch channels {
	case 1:
		return host.LayoutMono
	case 2:
		return host.LayoutStereo
	default:
		return host.LayoutDisabled
	}
}

func readWAV(path string) (result, error) {
	f, err := os.Open(path)
	if err != nil {
		return result{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return result{}, fmt.Errorf("%s: %w", path, errInvalidWAV)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return result{}, fmt.Errorf("%s: decode: %w", path, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)

	if channels <= 0 {
		return result{}, fmt.Errorf("%s: %w: no channels", path, errInvalidWAV)
	}

	samples := make([]float64, len(pcm.Data)-len(pcm.Data)%channels)
	for i := range samples {
		samples[i] = pcmToFloat(pcm.Data[i], bitDepth)
	}

	return result{
		channels:   channels,
		frames:     len(samples) / channels,
		sampleRate: int(dec.SampleRate),
		bitDepth:   bitDepth,
		samples:    samples,
	}, nil
}

func writeWAV(path string, res result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	data := make([]int, len(res.samples))
	for i, v := range res.samples {
		data[i] = floatToPCM(v, res.bitDepth)
	}

	enc := wav.NewEncoder(f, res.sampleRate, res.bitDepth, res.channels, 1)

	err = enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: res.channels,
			SampleRate:  res.sampleRate,
		},
		Data:           data,
		SourceBitDepth: res.bitDepth,
	})
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: encode: %w", path, err)
	}

	err = enc.Close()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: finalize: %w", path, err)
	}

	return f.Close()
}

// 8-bit WAV samples are unsigned with silence at this value; wider depths
// are signed.
const pcm8Offset = 128

// pcmToFloat converts a decoded PCM sample to full-scale float.
func pcmToFloat(v, bitDepth int) float64 {
	if bitDepth == 8 {
		v -= pcm8Offset
	}
	return float64(v) / fullScale(bitDepth)
}

// floatToPCM converts a full-scale float to a PCM sample for the encoder,
// clamping to [-1, 1].
func floatToPCM(v float64, bitDepth int) int {
	pcm := int(math.Round(core.Clamp(v, -1, 1) * (fullScale(bitDepth) - 1)))
	if bitDepth == 8 {
		pcm += pcm8Offset
	}
	return pcm
}

// fullScale returns the magnitude of a full-scale PCM sample.
func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}
