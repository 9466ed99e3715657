package problem

import (
	"errors"
	"fmt"

	"swaprecall/internal/bitblock"
	"swaprecall/internal/ctrl"
)

var (
	ErrMaskNotUniform = errors.New("mask differs across batch elements")
	ErrTargetMismatch = errors.New("masked steps do not match target length")
)

// Selector is the batch-wide set of time-steps taken from a uniform mask.
type Selector struct {
	Steps []bool
}

func (s Selector) Count() int {
	n := 0
	for _, v := range s.Steps {
		if v {
			n++
		}
	}
	return n
}

// SelectDummies computes the mask from untouched inputs: a step is selected when
// its control slice equals the DUMMY pattern on every channel. The mask must be
// identical for every batch element, since row 0 selects for the whole batch.
func SelectDummies(inputs bitblock.Block, codebook ctrl.Codebook) (Mask, Selector, error) {
	controlBits := codebook.Width()
	if inputs.Bits < controlBits {
		return nil, Selector{}, fmt.Errorf("%w: inputs carry %d bits, control channel needs %d", bitblock.ErrShapeMismatch, inputs.Bits, controlBits)
	}
	if inputs.Batch == 0 {
		return nil, Selector{}, fmt.Errorf("select dummies: empty batch")
	}

	mask := make(Mask, inputs.Batch)
	for b := 0; b < inputs.Batch; b++ {
		mask[b] = make([]bool, inputs.Time)
		for t := 0; t < inputs.Time; t++ {
			mask[b][t] = codebook.Matches(ctrl.Dummy, inputs.Row(b, t)[:controlBits])
		}
	}
	if !mask.Uniform() {
		return nil, Selector{}, ErrMaskNotUniform
	}

	steps := make([]bool, inputs.Time)
	copy(steps, mask[0])
	return mask, Selector{Steps: steps}, nil
}

// Reconcile returns copies of inputs with the control channel zeroed at every
// selected step and a zero target buffer with targetsRaw scattered, in order,
// into the selected steps. Neither argument is modified.
func Reconcile(inputs, targetsRaw bitblock.Block, sel Selector, controlBits int) (bitblock.Block, bitblock.Block, error) {
	if len(sel.Steps) != inputs.Time {
		return bitblock.Block{}, bitblock.Block{}, fmt.Errorf("%w: selector covers %d steps, inputs have %d", bitblock.ErrShapeMismatch, len(sel.Steps), inputs.Time)
	}
	if controlBits < 0 || controlBits > inputs.Bits {
		return bitblock.Block{}, bitblock.Block{}, fmt.Errorf("%w: control width %d out of range for %d bits", bitblock.ErrShapeMismatch, controlBits, inputs.Bits)
	}
	dataBits := inputs.Bits - controlBits
	if targetsRaw.Batch != inputs.Batch || targetsRaw.Bits != dataBits {
		return bitblock.Block{}, bitblock.Block{}, fmt.Errorf("%w: targets [%d _ %d], want [%d _ %d]", bitblock.ErrShapeMismatch, targetsRaw.Batch, targetsRaw.Bits, inputs.Batch, dataBits)
	}
	if selected := sel.Count(); selected != targetsRaw.Time {
		return bitblock.Block{}, bitblock.Block{}, fmt.Errorf("%w: %d masked steps, %d target steps", ErrTargetMismatch, selected, targetsRaw.Time)
	}

	cleared := inputs.Clone()
	targets := bitblock.New(inputs.Batch, inputs.Time, dataBits)
	for b := 0; b < inputs.Batch; b++ {
		next := 0
		for t, selected := range sel.Steps {
			if !selected {
				continue
			}
			row := cleared.Row(b, t)
			for k := 0; k < controlBits; k++ {
				row[k] = 0
			}
			copy(targets.Row(b, t), targetsRaw.Row(b, next))
			next++
		}
	}
	return cleared, targets, nil
}
