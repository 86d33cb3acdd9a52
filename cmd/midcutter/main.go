// Command midcutter replaces the audio of a WAV file with its smoothed power
// envelope.
//
// Usage:
//
//	midcutter [flags] input.wav output.wav
//
// Each channel is processed independently. The first sample of every
// channel seeds the envelope with its own squared value. Only mono and
// stereo files are accepted.
//
// Examples:
//
//	midcutter in.wav env.wav
//	midcutter -block 256 -report in.wav env.wav
//	midcutter -parallel -v in.wav env.wav
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type options struct {
	input     string
	output    string
	blockSize int
	parallel  bool
	report    bool
	verbose   bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	result, err := processFile(opts, log)
	if err != nil {
		log.WithError(err).Error("processing failed")
		return 1
	}

	log.WithFields(logrus.Fields{
		"input":       opts.input,
		"output":      opts.output,
		"channels":    result.channels,
		"frames":      result.frames,
		"sample_rate": result.sampleRate,
	}).Info("envelope written")

	if opts.report {
		err = printReport(stdout, result)
		if err != nil {
			log.WithError(err).Error("report failed")
			return 1
		}
	}

	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("midcutter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.blockSize, "block", 512, "processing block size in frames")
	fs.BoolVar(&opts.parallel, "parallel", false, "process channels concurrently")
	fs.BoolVar(&opts.report, "report", false, "print per-channel envelope ripple analysis")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: midcutter [flags] input.wav output.wav\n\n")
		fmt.Fprintf(stderr, "Replaces each channel with its smoothed power envelope.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	err := fs.Parse(args)
	if err != nil {
		return opts, err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return opts, fmt.Errorf("expected 2 arguments, got %d", fs.NArg())
	}

	if opts.blockSize <= 0 {
		fmt.Fprintf(stderr, "error: -block must be positive: %d\n", opts.blockSize)
		return opts, fmt.Errorf("invalid block size %d", opts.blockSize)
	}

	opts.input = fs.Arg(0)
	opts.output = fs.Arg(1)

	return opts, nil
}
