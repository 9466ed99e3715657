package problem

import (
	"fmt"

	"swaprecall/internal/bitblock"
	"swaprecall/internal/model"
)

func (c Config) Record() model.GeneratorConfig {
	return model.GeneratorConfig(c)
}

func ConfigFromRecord(r model.GeneratorConfig) Config {
	return Config(r)
}

// ToRecord packs a generated episode for persistence. Version fields are left
// for the store layer to stamp.
func (g GeneratedEpisode) ToRecord(runID string) model.EpisodeRecord {
	e := g.Episode
	return model.EpisodeRecord{
		RunID:       runID,
		Index:       g.Index,
		Seed:        g.Seed,
		ControlBits: e.ControlBits,
		XLengths:    append([]int(nil), e.Layout.XLengths...),
		YLengths:    append([]int(nil), e.Layout.YLengths...),
		Inputs:      packBlock(e.Inputs),
		Targets:     packBlock(e.Targets),
		Mask:        packMask(e.Mask, e.Inputs.Time),
	}
}

// EpisodeFromRecord restores an episode and re-checks its structural invariants.
func EpisodeFromRecord(r model.EpisodeRecord) (Episode, error) {
	inputs, err := unpackBlock(r.Inputs)
	if err != nil {
		return Episode{}, fmt.Errorf("episode %s/%d inputs: %w", r.RunID, r.Index, err)
	}
	targets, err := unpackBlock(r.Targets)
	if err != nil {
		return Episode{}, fmt.Errorf("episode %s/%d targets: %w", r.RunID, r.Index, err)
	}
	mask, err := unpackMask(r.Mask)
	if err != nil {
		return Episode{}, fmt.Errorf("episode %s/%d mask: %w", r.RunID, r.Index, err)
	}

	e := Episode{
		Inputs:      inputs,
		Targets:     targets,
		Mask:        mask,
		Layout:      Layout{XLengths: r.XLengths, YLengths: r.YLengths},
		ControlBits: r.ControlBits,
	}
	switch {
	case targets.Batch != inputs.Batch || targets.Time != inputs.Time || targets.Bits+r.ControlBits != inputs.Bits:
		return Episode{}, fmt.Errorf("%w: episode %s/%d inputs %v targets %v", bitblock.ErrShapeMismatch, r.RunID, r.Index, inputs.Shape(), targets.Shape())
	case len(mask) != inputs.Batch || (len(mask) > 0 && len(mask[0]) != inputs.Time):
		return Episode{}, fmt.Errorf("%w: episode %s/%d mask does not cover inputs", bitblock.ErrShapeMismatch, r.RunID, r.Index)
	case !mask.Uniform():
		return Episode{}, fmt.Errorf("episode %s/%d: %w", r.RunID, r.Index, ErrMaskNotUniform)
	case len(r.XLengths) != len(r.YLengths) || e.Layout.TotalTime() != inputs.Time:
		return Episode{}, fmt.Errorf("episode %s/%d: layout %+v does not match %d steps", r.RunID, r.Index, e.Layout, inputs.Time)
	}
	return e, nil
}

func packBlock(b bitblock.Block) model.Tensor {
	bits := make([]byte, len(b.Data))
	for i, v := range b.Data {
		if v != 0 {
			bits[i] = 1
		}
	}
	return model.Tensor{Shape: []int{b.Batch, b.Time, b.Bits}, Bits: bits}
}

func unpackBlock(t model.Tensor) (bitblock.Block, error) {
	if len(t.Shape) != 3 {
		return bitblock.Block{}, fmt.Errorf("expected 3 axes, got %v", t.Shape)
	}
	for _, d := range t.Shape {
		if d < 0 {
			return bitblock.Block{}, fmt.Errorf("negative axis in shape %v", t.Shape)
		}
	}
	b := bitblock.New(t.Shape[0], t.Shape[1], t.Shape[2])
	if len(t.Bits) != len(b.Data) {
		return bitblock.Block{}, fmt.Errorf("shape %v needs %d elements, got %d", t.Shape, len(b.Data), len(t.Bits))
	}
	for i, v := range t.Bits {
		b.Data[i] = float64(v)
	}
	return b, nil
}

func packMask(m Mask, time int) model.Tensor {
	bits := make([]byte, 0, len(m)*time)
	for _, row := range m {
		for _, v := range row {
			if v {
				bits = append(bits, 1)
			} else {
				bits = append(bits, 0)
			}
		}
	}
	return model.Tensor{Shape: []int{len(m), time}, Bits: bits}
}

func unpackMask(t model.Tensor) (Mask, error) {
	if len(t.Shape) != 2 || t.Shape[0] < 0 || t.Shape[1] < 0 {
		return nil, fmt.Errorf("expected 2 non-negative axes, got %v", t.Shape)
	}
	batch, time := t.Shape[0], t.Shape[1]
	if len(t.Bits) != batch*time {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", t.Shape, batch*time, len(t.Bits))
	}
	m := make(Mask, batch)
	for b := range m {
		m[b] = make([]bool, time)
		for step := range m[b] {
			m[b][step] = t.Bits[b*time+step] != 0
		}
	}
	return m, nil
}
