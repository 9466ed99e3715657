package problem

import (
	"context"
	"fmt"
	"math/rand"

	"swaprecall/internal/bitblock"
	"swaprecall/internal/ctrl"
)

const InterruptionSwapRecallName = "interruption-swap-recall"

// InterruptionSwapRecall generates episodes of the form
//
//	inputs:  #x1 %ry1 d1 ... #xn %ryn dn $ dx1 ... dxn
//	targets:       y1        ...     yn     x1 ... xn
//
// where ry is y rotated in time, d are dummies and $ separates the recall phase.
// Y and X targets sit under the dummies; the mask selects exactly those steps.
type InterruptionSwapRecall struct {
	cfg      Config
	codebook ctrl.Codebook
}

func NewInterruptionSwapRecall(cfg Config) (*InterruptionSwapRecall, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codebook, err := ctrl.NewCodebook(cfg.ControlBits)
	if err != nil {
		return nil, &ConfigError{Field: "control_bits", Reason: err.Error()}
	}
	return &InterruptionSwapRecall{cfg: cfg, codebook: codebook}, nil
}

func (*InterruptionSwapRecall) Name() string {
	return InterruptionSwapRecallName
}

func (*InterruptionSwapRecall) Description() string {
	return "interleaved X/Y bit sub-sequences; recall all X and the unrotated Y"
}

func (p *InterruptionSwapRecall) Config() Config {
	return p.cfg
}

func (p *InterruptionSwapRecall) Codebook() ctrl.Codebook {
	return p.codebook
}

func (p *InterruptionSwapRecall) GenerateBatch(ctx context.Context, rng *rand.Rand) (Episode, error) {
	if rng == nil {
		return Episode{}, fmt.Errorf("%s: random source is required", p.Name())
	}
	if err := ctx.Err(); err != nil {
		return Episode{}, err
	}

	layout := p.sampleLayout(rng)
	cfg := p.cfg

	xs := make([]bitblock.Block, len(layout.XLengths))
	ys := make([]bitblock.Block, len(layout.YLengths))
	for i := range xs {
		xs[i] = bitblock.Bernoulli(rng, cfg.BatchSize, layout.XLengths[i], cfg.DataBits, cfg.Bias)
		ys[i] = bitblock.Bernoulli(rng, cfg.BatchSize, layout.YLengths[i], cfg.DataBits, cfg.Bias)
	}

	targetsRaw, err := bitblock.ConcatTime(append(append([]bitblock.Block{}, ys...), xs...)...)
	if err != nil {
		return Episode{}, fmt.Errorf("build targets: %w", err)
	}

	inputsRaw, err := p.assembleInputs(xs, ys, layout)
	if err != nil {
		return Episode{}, err
	}

	mask, selector, err := SelectDummies(inputsRaw, p.codebook)
	if err != nil {
		return Episode{}, err
	}
	inputs, targets, err := Reconcile(inputsRaw, targetsRaw, selector, cfg.ControlBits)
	if err != nil {
		return Episode{}, err
	}

	return Episode{
		Inputs:      inputs,
		Targets:     targets,
		Mask:        mask,
		Layout:      layout,
		ControlBits: cfg.ControlBits,
	}, nil
}

// sampleLayout draws the pair count once, then X and Y lengths independently.
// Both families always share the same count. Lengths are per batch, never per
// sample, which keeps the marker layout identical across the batch.
func (p *InterruptionSwapRecall) sampleLayout(rng *rand.Rand) Layout {
	cfg := p.cfg
	n := cfg.NumSubseqMin + rng.Intn(cfg.NumSubseqMax-cfg.NumSubseqMin+1)
	span := cfg.MaxSequenceLength - cfg.MinSequenceLength + 1

	layout := Layout{XLengths: make([]int, n), YLengths: make([]int, n)}
	for i := range layout.XLengths {
		layout.XLengths[i] = cfg.MinSequenceLength + rng.Intn(span)
	}
	for i := range layout.YLengths {
		layout.YLengths[i] = cfg.MinSequenceLength + rng.Intn(span)
	}
	return layout
}

func (p *InterruptionSwapRecall) assembleInputs(xs, ys []bitblock.Block, layout Layout) (bitblock.Block, error) {
	cfg := p.cfg
	interSubseq, err := ctrl.MarkerRow(p.codebook, ctrl.InterSubseq, cfg.BatchSize, cfg.DataBits)
	if err != nil {
		return bitblock.Block{}, err
	}
	interSeq, err := ctrl.MarkerRow(p.codebook, ctrl.InterSeq, cfg.BatchSize, cfg.DataBits)
	if err != nil {
		return bitblock.Block{}, err
	}

	parts := make([]bitblock.Block, 0, 5*len(xs)+1)
	recall := make([]bitblock.Block, 0, len(xs))
	for i := range xs {
		xx, err := ctrl.Augment(xs[i], p.codebook, ctrl.StartX, true)
		if err != nil {
			return bitblock.Block{}, fmt.Errorf("augment x%d: %w", i+1, err)
		}
		yy, err := ctrl.Augment(ys[i], p.codebook, ctrl.StartY, false)
		if err != nil {
			return bitblock.Block{}, fmt.Errorf("augment y%d: %w", i+1, err)
		}
		rotated, err := bitblock.Rotate(yy.Data, cfg.Rotation, layout.YLengths[i])
		if err != nil {
			return bitblock.Block{}, fmt.Errorf("rotate y%d: %w", i+1, err)
		}

		parts = append(parts, xx.Leading()...)
		parts = append(parts, interSubseq, rotated, yy.Dummy)
		recall = append(recall, xx.Dummy)
	}
	parts = append(parts, interSeq)
	parts = append(parts, recall...)

	inputs, err := bitblock.ConcatTime(parts...)
	if err != nil {
		return bitblock.Block{}, fmt.Errorf("build inputs: %w", err)
	}
	if inputs.Time != layout.TotalTime() {
		return bitblock.Block{}, fmt.Errorf("build inputs: assembled %d steps, layout expects %d", inputs.Time, layout.TotalTime())
	}
	return inputs, nil
}
