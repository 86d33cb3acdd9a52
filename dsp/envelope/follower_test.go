package envelope

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-midcutter/internal/testutil"
)

const eps = 1e-12

// TestNew verifies constructor validation of the channel count.
func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		wantErr  bool
	}{
		{"mono", 1, false},
		{"stereo", 2, false},
		{"surround", 6, false},
		{"invalid zero", 0, true},
		{"invalid negative", -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.channels)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%d) error = %v, wantErr %v", tt.channels, err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if f.Channels() != tt.channels {
				t.Fatalf("Channels() = %d, want %d", f.Channels(), tt.channels)
			}

			for ch := range tt.channels {
				if _, ok := f.Average(ch); ok {
					t.Fatalf("channel %d initialized after New", ch)
				}
			}
		})
	}
}

// TestAdvanceFirstSample verifies that a fresh channel is seeded with the
// squared sample and emits it.
//
// The emitted value is the squared sample rather than the raw input, which
// causes a jump at stream start for any non-trivial first sample. This
// behavior is deliberate and pinned here.
func TestAdvanceFirstSample(t *testing.T) {
	for _, x := range []float64{0, 0.25, -0.5, 1, -3} {
		f, _ := New(1)

		got := f.Advance(0, x)
		if got != x*x {
			t.Fatalf("Advance(0, %v) = %v, want %v", x, got, x*x)
		}

		avg, ok := f.Average(0)
		if !ok || avg != x*x {
			t.Fatalf("Average(0) = (%v, %v), want (%v, true)", avg, ok, x*x)
		}
	}
}

// TestAdvanceSmoothingDirection verifies attack and release weights.
func TestAdvanceSmoothingDirection(t *testing.T) {
	tests := []struct {
		name string
		prev float64
		x    float64
		want float64
	}{
		{"attack", 0.5, 1.0, 0.1*0.5 + 0.9*1.0},
		{"release", 1.0, 0.5, 0.7*1.0 + 0.3*0.25},
		{"equal uses release", 0.25, 0.5, 0.7*0.25 + 0.3*0.25},
		{"silence", 2.0, 0, 0.7 * 2.0},
		{"negative sample attacks", 0.1, -2, 0.1*0.1 + 0.9*4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := New(1)
			f.Advance(0, math.Sqrt(tt.prev))

			got := f.Advance(0, tt.x)
			if math.Abs(got-tt.want) > eps {
				t.Fatalf("Advance = %v, want %v", got, tt.want)
			}

			avg, _ := f.Average(0)
			if avg != got {
				t.Fatalf("Average = %v, want %v", avg, got)
			}
		})
	}
}

func TestAdvanceWorkedExample(t *testing.T) {
	f, _ := New(1)

	got := make([]float64, 0, 3)
	for _, x := range []float64{1.0, 0.5, 2.0} {
		got = append(got, f.Advance(0, x))
	}

	testutil.RequireSliceNearlyEqual(t, got, []float64{1.0, 0.775, 3.6775}, eps)
}

func TestProcessBlockTwoChannels(t *testing.T) {
	f, _ := New(2)
	block := [][]float64{{0, 0}, {3, 0}}

	f.ProcessBlock(block, 2)

	testutil.RequireSliceNearlyEqual(t, block[0], []float64{0, 0}, eps)
	testutil.RequireSliceNearlyEqual(t, block[1], []float64{9, 6.3}, eps)

	if len(block) != 2 || len(block[0]) != 2 || len(block[1]) != 2 {
		t.Fatalf("block shape changed: %v", block)
	}
}

func TestProcessBlockMatchesAdvance(t *testing.T) {
	signal := testutil.DeterministicNoise(7, 1.0, 300)

	ref, _ := New(1)
	want := make([]float64, len(signal))
	for i, x := range signal {
		want[i] = ref.Advance(0, x)
	}

	f, _ := New(1)
	block := testutil.Channels(signal)
	f.ProcessBlock(block, 1)

	testutil.RequireSliceEqual(t, block[0], want)
}

// TestProcessBlockContinuity verifies that state carries across blocks.
func TestProcessBlockContinuity(t *testing.T) {
	signal := testutil.DeterministicSine(440, 48000, 0.8, 512)

	whole, _ := New(1)
	wholeBlock := testutil.Channels(signal)
	whole.ProcessBlock(wholeBlock, 1)

	split, _ := New(1)
	var got []float64
	for start := 0; start < len(signal); start += 100 {
		end := min(start+100, len(signal))
		part := testutil.Channels(signal[start:end])
		split.ProcessBlock(part, 1)
		got = append(got, part[0]...)
	}

	testutil.RequireSliceEqual(t, got, wholeBlock[0])
}

func TestProcessBlockActiveChannels(t *testing.T) {
	f, _ := New(3)
	block := [][]float64{{2, 2}, {0.5, 0.5}, {7, 7}}

	f.ProcessBlock(block, 2)

	if block[2][0] != 7 || block[2][1] != 7 {
		t.Fatalf("inactive channel modified: %v", block[2])
	}

	if _, ok := f.Average(2); ok {
		t.Fatal("inactive channel state initialized")
	}

	if block[0][0] != 4 || block[1][0] != 0.25 {
		t.Fatalf("active channels not processed: %v", block[:2])
	}
}

func TestProcessBlockClampsChannelCount(t *testing.T) {
	f, _ := New(1)
	block := [][]float64{{2}, {3}}

	f.ProcessBlock(block, 5)

	if block[0][0] != 4 {
		t.Fatalf("block[0][0] = %v, want 4", block[0][0])
	}

	if block[1][0] != 3 {
		t.Fatalf("channel beyond follower size modified: %v", block[1][0])
	}

	f.ProcessBlock(block, -1)
	f.ProcessBlock(nil, 1)
}

func TestChannelIndependence(t *testing.T) {
	left := testutil.DeterministicNoise(1, 0.9, 128)
	right := testutil.DeterministicSine(1000, 48000, 0.5, 128)

	isolatedL, _ := New(1)
	wantL := testutil.Channels(left)
	isolatedL.ProcessBlock(wantL, 1)

	isolatedR, _ := New(1)
	wantR := testutil.Channels(right)
	isolatedR.ProcessBlock(wantR, 1)

	f, _ := New(2)
	gotL := make([]float64, len(left))
	gotR := make([]float64, len(right))
	for i := range left {
		gotR[i] = f.Advance(1, right[i])
		gotL[i] = f.Advance(0, left[i])
	}

	testutil.RequireSliceEqual(t, gotL, wantL[0])
	testutil.RequireSliceEqual(t, gotR, wantR[0])
}

func TestDeterminism(t *testing.T) {
	signal := testutil.DeterministicNoise(99, 2.0, 256)

	run := func() []float64 {
		f, _ := New(1)
		block := testutil.Channels(signal)
		f.ProcessBlock(block, 1)
		return block[0]
	}

	testutil.RequireSliceEqual(t, run(), run())
}

func TestReset(t *testing.T) {
	f, _ := New(2)
	f.ProcessBlock([][]float64{{1, 0.3, 0.9}, {0.2, 0.1}}, 2)

	f.Reset()

	for ch := range 2 {
		if _, ok := f.Average(ch); ok {
			t.Fatalf("channel %d still initialized after Reset", ch)
		}
	}

	if got := f.Advance(0, 0.5); got != 0.25 {
		t.Fatalf("Advance after Reset = %v, want 0.25", got)
	}

	// Reset is idempotent.
	f.Reset()
	f.Reset()

	if got := f.Advance(1, 3); got != 9 {
		t.Fatalf("Advance after double Reset = %v, want 9", got)
	}
}

func TestResetChannel(t *testing.T) {
	f, _ := New(2)
	f.Advance(0, 1)
	f.Advance(1, 1)

	f.ResetChannel(1)

	if _, ok := f.Average(0); !ok {
		t.Fatal("channel 0 reset by ResetChannel(1)")
	}

	if got := f.Advance(1, 0.1); math.Abs(got-0.01) > eps {
		t.Fatalf("Advance after ResetChannel = %v, want 0.01", got)
	}
}

func TestSetChannels(t *testing.T) {
	f, _ := New(1)
	f.Advance(0, 2)

	if err := f.SetChannels(3); err != nil {
		t.Fatalf("SetChannels(3) error = %v", err)
	}

	if avg, ok := f.Average(0); !ok || avg != 4 {
		t.Fatalf("channel 0 lost on grow: (%v, %v)", avg, ok)
	}

	if _, ok := f.Average(2); ok {
		t.Fatal("new channel initialized")
	}

	f.Advance(2, 1)

	if err := f.SetChannels(2); err != nil {
		t.Fatalf("SetChannels(2) error = %v", err)
	}

	if err := f.SetChannels(3); err != nil {
		t.Fatalf("SetChannels(3) error = %v", err)
	}

	if _, ok := f.Average(2); ok {
		t.Fatal("dropped channel kept stale state after regrow")
	}

	if err := f.SetChannels(0); err == nil {
		t.Fatal("SetChannels(0) expected error")
	}

	if f.Channels() != 3 {
		t.Fatalf("Channels() = %d after failed SetChannels, want 3", f.Channels())
	}
}

func TestNonNegative(t *testing.T) {
	f, _ := New(1)
	block := testutil.Channels(testutil.DeterministicNoise(3, 10, 2048))

	f.ProcessBlock(block, 1)

	testutil.RequireFinite(t, block[0])
	testutil.RequireNonNegative(t, block[0])
}

func TestAttackFasterThanRelease(t *testing.T) {
	f, _ := New(1)
	block := testutil.Channels(testutil.Burst(40, 5, 20, 1))

	f.ProcessBlock(block, 1)
	env := block[0]

	// Three attack steps reach 1-0.1^3 of full scale.
	if env[7] < 0.99 {
		t.Fatalf("attack too slow: env[7] = %v", env[7])
	}

	// Three release steps keep 0.7^3 of the level.
	if math.Abs(env[22]-0.343*env[19]) > 1e-9 {
		t.Fatalf("release mismatch: env[22] = %v, want %v", env[22], 0.343*env[19])
	}
}

func TestNonFinitePropagates(t *testing.T) {
	f, _ := New(1)
	f.Advance(0, 1)

	if got := f.Advance(0, math.NaN()); !math.IsNaN(got) {
		t.Fatalf("Advance(NaN) = %v, want NaN", got)
	}

	if got := f.Advance(0, 0.5); !math.IsNaN(got) {
		t.Fatalf("NaN did not persist until reset: %v", got)
	}

	f.Reset()

	if got := f.Advance(0, math.Inf(-1)); !math.IsInf(got, 1) {
		t.Fatalf("Advance(-Inf) = %v, want +Inf", got)
	}
}

func TestProcessBlockParallelMatchesSequential(t *testing.T) {
	signals := [][]float64{
		testutil.DeterministicNoise(11, 1, 1024),
		testutil.DeterministicNoise(12, 0.5, 1024),
		testutil.DeterministicSine(220, 48000, 1, 1024),
		testutil.Burst(1024, 100, 400, 0.7),
	}

	seq, _ := New(len(signals))
	par, _ := New(len(signals))

	for block := 0; block < 3; block++ {
		want := testutil.Channels(signals...)
		got := testutil.Channels(signals...)

		seq.ProcessBlock(want, 3)
		par.ProcessBlockParallel(got, 3)

		for ch := range want {
			testutil.RequireSliceEqual(t, got[ch], want[ch])
		}
	}
}

func TestProcessInPlaceEmpty(t *testing.T) {
	f, _ := New(1)
	f.ProcessInPlace(0, nil)

	if _, ok := f.Average(0); ok {
		t.Fatal("empty buffer initialized channel")
	}
}
