package problem

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"swaprecall/internal/bitblock"
	"swaprecall/internal/ctrl"
)

func generate(t *testing.T, cfg Config, seed int64) (*InterruptionSwapRecall, Episode) {
	t.Helper()
	p, err := NewInterruptionSwapRecall(cfg)
	if err != nil {
		t.Fatalf("new problem: %v", err)
	}
	episode, err := p.GenerateBatch(context.Background(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return p, episode
}

func payload(t *testing.T, e Episode, from, to int) bitblock.Block {
	t.Helper()
	steps, err := e.Inputs.SliceTime(from, to)
	if err != nil {
		t.Fatalf("slice inputs: %v", err)
	}
	data, err := steps.SliceBits(e.ControlBits, e.Inputs.Bits)
	if err != nil {
		t.Fatalf("slice payload: %v", err)
	}
	return data
}

func targetSlice(t *testing.T, e Episode, from, to int) bitblock.Block {
	t.Helper()
	out, err := e.Targets.SliceTime(from, to)
	if err != nil {
		t.Fatalf("slice targets: %v", err)
	}
	return out
}

func TestGenerateBatchShapes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 3
	_, e := generate(t, cfg, 7)

	total := e.Layout.TotalTime()
	if e.Inputs.Shape() != [3]int{3, total, cfg.ControlBits + cfg.DataBits} {
		t.Fatalf("inputs shape %v", e.Inputs.Shape())
	}
	if e.Targets.Shape() != [3]int{3, total, cfg.DataBits} {
		t.Fatalf("targets shape %v", e.Targets.Shape())
	}
	if len(e.Mask) != 3 || len(e.Mask[0]) != total {
		t.Fatalf("mask shape [%d %d]", len(e.Mask), len(e.Mask[0]))
	}
	n := e.Layout.Subsequences()
	if n < cfg.NumSubseqMin || n > cfg.NumSubseqMax || len(e.Layout.YLengths) != n {
		t.Fatalf("unexpected layout %+v", e.Layout)
	}
	for _, l := range append(append([]int{}, e.Layout.XLengths...), e.Layout.YLengths...) {
		if l < cfg.MinSequenceLength || l > cfg.MaxSequenceLength {
			t.Fatalf("length %d outside [%d, %d]", l, cfg.MinSequenceLength, cfg.MaxSequenceLength)
		}
	}
}

func TestGenerateBatchMaskIsUniformAcrossBatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 5
	for seed := int64(1); seed <= 20; seed++ {
		_, e := generate(t, cfg, seed)
		for b := range e.Mask {
			for step := range e.Mask[0] {
				if e.Mask[b][step] != e.Mask[0][step] {
					t.Fatalf("seed %d: mask[%d][%d] differs from row 0", seed, b, step)
				}
			}
		}
	}
}

func TestGenerateBatchMaskCountsAndRecallPhase(t *testing.T) {
	cfg := DefaultConfig()
	for seed := int64(1); seed <= 25; seed++ {
		_, e := generate(t, cfg, seed)
		if got, want := e.Mask.Count(0), e.Layout.SumX()+e.Layout.SumY(); got != want {
			t.Fatalf("seed %d: %d masked steps, want %d", seed, got, want)
		}

		recallStart := e.Layout.RecallStart()
		for step := recallStart; step < e.Inputs.Time; step++ {
			if !e.Mask[0][step] {
				t.Fatalf("seed %d: recall step %d not masked", seed, step)
			}
		}
		if e.Mask[0][recallStart-1] {
			t.Fatalf("seed %d: inter-sequence marker at %d is masked", seed, recallStart-1)
		}
		if e.Inputs.Time-recallStart != e.Layout.SumX() {
			t.Fatalf("seed %d: recall phase has %d steps, want %d", seed, e.Inputs.Time-recallStart, e.Layout.SumX())
		}
	}
}

func TestGenerateBatchDefaultConfigIsDeterministic(t *testing.T) {
	_, e := generate(t, DefaultConfig(), 42)
	l := e.Layout
	want := 2*l.SumX() + 2*l.SumY() + 2*l.Subsequences() + 1
	if e.Inputs.Time != want {
		t.Fatalf("total time %d, want %d (layout %+v)", e.Inputs.Time, want, l)
	}

	// Same seed, same episode.
	_, again := generate(t, DefaultConfig(), 42)
	if !again.Inputs.Equal(e.Inputs) || !again.Targets.Equal(e.Targets) {
		t.Fatal("generation is not deterministic for a fixed seed")
	}
}

func TestGenerateBatchRoundTripsTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.DataBits = 5
	for _, rotation := range []float64{0, 0.5, -0.25, 3, -7} {
		cfg.Rotation = rotation
		for seed := int64(1); seed <= 10; seed++ {
			p, e := generate(t, cfg, seed)
			cb := p.Codebook()

			pos := 0
			var xs []bitblock.Block
			for i := 0; i < e.Layout.Subsequences(); i++ {
				lx, ly := e.Layout.XLengths[i], e.Layout.YLengths[i]
				for b := 0; b < cfg.BatchSize; b++ {
					if !cb.Matches(ctrl.StartX, e.Inputs.Row(b, pos)[:cfg.ControlBits]) {
						t.Fatalf("pair %d: expected start marker at %d", i, pos)
					}
					if !cb.Matches(ctrl.InterSubseq, e.Inputs.Row(b, pos+1+lx)[:cfg.ControlBits]) {
						t.Fatalf("pair %d: expected inter-subsequence marker at %d", i, pos+1+lx)
					}
				}
				xs = append(xs, payload(t, e, pos+1, pos+1+lx))

				yStart := pos + 2 + lx
				rotated := payload(t, e, yStart, yStart+ly)
				unrotated, err := bitblock.Rotate(rotated, -rotation, ly)
				if err != nil {
					t.Fatalf("unrotate: %v", err)
				}
				if got := targetSlice(t, e, yStart+ly, yStart+2*ly); !got.Equal(unrotated) {
					t.Fatalf("rotation %v seed %d pair %d: y targets do not match unrotated input", rotation, seed, i)
				}
				for step := yStart + ly; step < yStart+2*ly; step++ {
					if !e.Mask[0][step] {
						t.Fatalf("y dummy step %d not masked", step)
					}
				}
				pos = yStart + 2*ly
			}

			for b := 0; b < cfg.BatchSize; b++ {
				if !cb.Matches(ctrl.InterSeq, e.Inputs.Row(b, pos)[:cfg.ControlBits]) {
					t.Fatalf("expected inter-sequence marker at %d", pos)
				}
			}
			pos++

			for i, x := range xs {
				got := targetSlice(t, e, pos, pos+x.Time)
				if !got.Equal(x) {
					t.Fatalf("rotation %v seed %d: recall target %d does not reproduce x", rotation, seed, i)
				}
				pos += x.Time
			}
			if pos != e.Inputs.Time {
				t.Fatalf("walked %d steps, episode has %d", pos, e.Inputs.Time)
			}
		}
	}
}

func TestGenerateBatchClearsDummiesAndZeroesUnmaskedTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	_, e := generate(t, cfg, 9)
	for b := 0; b < cfg.BatchSize; b++ {
		for step := 0; step < e.Inputs.Time; step++ {
			row := e.Inputs.Row(b, step)
			if e.Mask[b][step] {
				for k, v := range row {
					if v != 0 {
						t.Fatalf("masked step %d bit %d = %v, want cleared control and empty payload", step, k, v)
					}
				}
				continue
			}
			for _, v := range e.Targets.Row(b, step) {
				if v != 0 {
					t.Fatalf("unmasked step %d carries target %v", step, e.Targets.Row(b, step))
				}
			}
		}
	}
}

func TestGenerateBatchSinglePairMarkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSubseqMin, cfg.NumSubseqMax = 1, 1
	p, e := generate(t, cfg, 3)
	if e.Layout.Subsequences() != 1 {
		t.Fatalf("expected one pair, got %d", e.Layout.Subsequences())
	}

	counts := map[ctrl.Marker]int{}
	for step := 0; step < e.Inputs.Time; step++ {
		if e.Mask[0][step] {
			continue
		}
		control := e.Inputs.Row(0, step)[:cfg.ControlBits]
		for _, m := range []ctrl.Marker{ctrl.StartX, ctrl.InterSubseq, ctrl.InterSeq} {
			if p.Codebook().Matches(m, control) {
				counts[m]++
			}
		}
	}
	for _, m := range []ctrl.Marker{ctrl.StartX, ctrl.InterSubseq, ctrl.InterSeq} {
		if counts[m] != 1 {
			t.Fatalf("expected exactly one %s marker, got %d", m, counts[m])
		}
	}
}

func TestGenerateBatchWideControlChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ControlBits = 5
	cfg.BatchSize = 2
	_, e := generate(t, cfg, 11)
	if e.Inputs.Bits != 13 {
		t.Fatalf("expected 13 input bits, got %d", e.Inputs.Bits)
	}
	if e.Mask.Count(0) != e.Layout.MaskedSteps() {
		t.Fatalf("masked %d, want %d", e.Mask.Count(0), e.Layout.MaskedSteps())
	}
}

func TestGenerateBatchRequiresRandomSource(t *testing.T) {
	p, err := NewInterruptionSwapRecall(DefaultConfig())
	if err != nil {
		t.Fatalf("new problem: %v", err)
	}
	if _, err := p.GenerateBatch(context.Background(), nil); err == nil {
		t.Fatal("expected error without a random source")
	}
}

func TestGenerateBatchHonorsCancellation(t *testing.T) {
	p, err := NewInterruptionSwapRecall(DefaultConfig())
	if err != nil {
		t.Fatalf("new problem: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GenerateBatch(ctx, rand.New(rand.NewSource(1))); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestMaskedBitAccuracy(t *testing.T) {
	_, e := generate(t, DefaultConfig(), 5)
	perfect, err := MaskedBitAccuracy(e, e.Targets)
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if perfect != 1 {
		t.Fatalf("expected perfect accuracy, got %f", perfect)
	}

	inverted := e.Targets.Clone()
	for i := range inverted.Data {
		inverted.Data[i] = 1 - inverted.Data[i]
	}
	worst, err := MaskedBitAccuracy(e, inverted)
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if worst != 0 {
		t.Fatalf("expected zero accuracy on inverted masked bits, got %f", worst)
	}

	if _, err := MaskedBitAccuracy(e, bitblock.New(1, 1, 1)); !errors.Is(err, bitblock.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}

func TestFormatSample(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSubseqMin, cfg.NumSubseqMax = 1, 1
	cfg.MinSequenceLength, cfg.MaxSequenceLength = 2, 2
	_, e := generate(t, cfg, 1)
	out, err := FormatSample(e, 0)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	// start, x, marker, rotated y, y dummy, separator, x recall
	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	if lines != 1+e.Inputs.Time || e.Inputs.Time != 11 {
		t.Fatalf("unexpected rendering (%d lines, %d steps):\n%s", lines, e.Inputs.Time, out)
	}
	if _, err := FormatSample(e, 1); err == nil {
		t.Fatal("expected out-of-range batch index error")
	}
}
