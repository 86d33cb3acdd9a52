package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/algo-midcutter/dsp/core"
	"github.com/cwbudde/algo-midcutter/measure/ripple"
)

func printReport(w io.Writer, res result) error {
	analyzer, err := ripple.NewAnalyzer(float64(res.sampleRate))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Channel\tMean [dB]\tRipple RMS\tRipple Ratio\tDominant [Hz]\n")
	fmt.Fprintf(tw, "-------\t---------\t----------\t------------\t-------------\n")

	for ch := 0; ch < res.channels; ch++ {
		if res.frames == 0 {
			fmt.Fprintf(tw, "%d\t-\t-\t-\t-\n", ch)
			continue
		}

		r, err := analyzer.Analyze(res.channel(ch))
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}

		fmt.Fprintf(tw, "%d\t%.2f\t%.6f\t%.4f\t%.1f\n",
			ch,
			core.LinearPowerToDB(r.Mean),
			r.RippleRMS,
			r.RippleRatio,
			r.DominantHz,
		)
	}

	return tw.Flush()
}
