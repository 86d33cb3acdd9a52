package host

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/algo-midcutter/dsp/buffer"
	"github.com/cwbudde/algo-midcutter/dsp/core"
	"github.com/cwbudde/algo-midcutter/dsp/envelope"
	"github.com/sirupsen/logrus"
)

// Name is the processor name reported to hosts.
const Name = "Midcutter"

var (
	// ErrNotPrepared is returned by Process before Prepare or after Release.
	ErrNotPrepared = errors.New("host: processor not prepared")
	// ErrChannelCount is returned when a block carries more input channels
	// than the processor was prepared for.
	ErrChannelCount = errors.New("host: too many input channels")
	// ErrBlockSize is returned when any channel of a block exceeds the prepared
	// block size.
	ErrBlockSize = errors.New("host: block exceeds prepared size")
)

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for lifecycle events. The audio path
// never logs.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// WithParallelChannels processes channels of a block concurrently.
func WithParallelChannels(enable bool) Option {
	return func(p *Processor) {
		p.parallel = enable
	}
}

// Processor drives an [envelope.Follower] from host lifecycle callbacks.
//
// Prepare, Release and Reset must not be called concurrently with Process.
type Processor struct {
	log      logrus.FieldLogger
	parallel bool

	follower *envelope.Follower
	cfg      core.ProcessorConfig
	prepared bool
}

// New creates an unprepared Processor.
func New(opts ...Option) (*Processor, error) {
	cfg := core.DefaultProcessorConfig()

	follower, err := envelope.New(cfg.Channels)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		log:      discardLogger(),
		follower: follower,
		cfg:      cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Name returns the processor name.
func (p *Processor) Name() string { return Name }

// TailLengthSeconds returns how long output continues after input stops.
// The follower has no tail beyond the current block.
func (p *Processor) TailLengthSeconds() float64 { return 0 }

// Config returns the configuration of the last successful Prepare.
func (p *Processor) Config() core.ProcessorConfig { return p.cfg }

// Prepared reports whether Process may be called.
func (p *Processor) Prepared() bool { return p.prepared }

// Follower exposes the underlying follower for metering.
func (p *Processor) Follower() *envelope.Follower { return p.follower }

// Prepare configures the processor for playback and resets all envelope
// state. Hosts call it before the first block and whenever the sample rate,
// block size or channel count changes.
func (p *Processor) Prepare(cfg core.ProcessorConfig) error {
	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("host: prepare: %w", err)
	}

	err = p.follower.SetChannels(cfg.Channels)
	if err != nil {
		return fmt.Errorf("host: prepare: %w", err)
	}

	log := p.log.WithFields(logrus.Fields{
		"sample_rate": cfg.SampleRate,
		"block_size":  cfg.BlockSize,
		"channels":    cfg.Channels,
	})

	if p.prepared && cfg.SampleRate != p.cfg.SampleRate {
		log.WithField("previous_sample_rate", p.cfg.SampleRate).Debug("sample rate changed")
	}

	p.follower.Reset()
	p.cfg = cfg
	p.prepared = true

	log.Debug("processor prepared")

	return nil
}

// Release ends playback. Envelope state is discarded and Process fails until
// the next Prepare.
func (p *Processor) Release() {
	if !p.prepared {
		return
	}

	p.follower.Reset()
	p.prepared = false

	p.log.Debug("processor released")
}

// Reset discards envelope state without ending playback, for example after
// a transport jump.
func (p *Processor) Reset() {
	p.follower.Reset()
	p.log.Debug("processor reset")
}

// Process runs one audio block in place. Channels numInputs and above carry
// no input and are cleared; channels below numInputs are replaced by their
// envelope.
func (p *Processor) Process(block *buffer.Block, numInputs int) error {
	if !p.prepared {
		return ErrNotPrepared
	}

	if numInputs < 0 || numInputs > p.follower.Channels() {
		return fmt.Errorf("%w: %d inputs, prepared for %d", ErrChannelCount, numInputs, p.follower.Channels())
	}

	for ch, samples := range block.Channels() {
		if len(samples) > p.cfg.BlockSize {
			return fmt.Errorf("%w: channel %d has %d samples, prepared for %d",
				ErrBlockSize, ch, len(samples), p.cfg.BlockSize)
		}
	}

	block.ClearChannels(numInputs)

	active := min(numInputs, block.NumChannels())
	if p.parallel {
		p.follower.ProcessBlockParallel(block.Channels(), active)
	} else {
		p.follower.ProcessBlock(block.Channels(), active)
	}

	return nil
}
