package problem

import "swaprecall/internal/bitblock"

// Mask is a [batch][time] selector of the time-steps a consumer is scored on.
type Mask [][]bool

// Count returns the number of selected steps in batch row b.
func (m Mask) Count(b int) int {
	n := 0
	for _, v := range m[b] {
		if v {
			n++
		}
	}
	return n
}

// Uniform reports whether every batch row equals row 0.
func (m Mask) Uniform() bool {
	for b := 1; b < len(m); b++ {
		if len(m[b]) != len(m[0]) {
			return false
		}
		for t := range m[0] {
			if m[b][t] != m[0][t] {
				return false
			}
		}
	}
	return true
}

// Layout records the sub-sequence lengths drawn for one episode.
type Layout struct {
	XLengths []int `json:"x_lengths"`
	YLengths []int `json:"y_lengths"`
}

func (l Layout) Subsequences() int {
	return len(l.XLengths)
}

func (l Layout) SumX() int {
	return sum(l.XLengths)
}

func (l Layout) SumY() int {
	return sum(l.YLengths)
}

// TotalTime is the input length: per pair a start marker, X, an
// inter-subsequence marker, rotated Y and Y's dummy; then the inter-sequence
// marker and the X recall dummies.
func (l Layout) TotalTime() int {
	return 2*l.SumX() + 2*l.SumY() + 2*l.Subsequences() + 1
}

// RecallStart is the first time-step of the trailing recall phase.
func (l Layout) RecallStart() int {
	return l.TotalTime() - l.SumX()
}

// MaskedSteps is the number of DUMMY-tagged steps: every Y dummy plus the recall phase.
func (l Layout) MaskedSteps() int {
	return l.SumX() + l.SumY()
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// Episode is one generated batch. Inputs is [batch, time, control+data],
// Targets is [batch, time, data] and zero outside the mask.
type Episode struct {
	Inputs      bitblock.Block
	Targets     bitblock.Block
	Mask        Mask
	Layout      Layout
	ControlBits int
}

func (e Episode) DataBits() int {
	return e.Targets.Bits
}
