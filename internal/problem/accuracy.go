package problem

import (
	"fmt"

	"swaprecall/internal/bitblock"
)

// MaskedBitAccuracy scores predictions against targets on masked steps only.
// A prediction bit counts as 1 when it is >= 0.5.
func MaskedBitAccuracy(e Episode, predictions bitblock.Block) (float64, error) {
	if predictions.Shape() != e.Targets.Shape() {
		return 0, fmt.Errorf("%w: predictions %v, targets %v", bitblock.ErrShapeMismatch, predictions.Shape(), e.Targets.Shape())
	}

	var correct, total int
	for b := 0; b < e.Targets.Batch; b++ {
		for t, selected := range e.Mask[b] {
			if !selected {
				continue
			}
			want := e.Targets.Row(b, t)
			got := predictions.Row(b, t)
			for k := range want {
				bit := 0.0
				if got[k] >= 0.5 {
					bit = 1
				}
				if bit == want[k] {
					correct++
				}
				total++
			}
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("no masked steps to score")
	}
	return float64(correct) / float64(total), nil
}
