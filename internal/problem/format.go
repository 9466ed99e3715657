package problem

import (
	"fmt"
	"strings"
)

// FormatSample renders batch element b as one line per time-step:
// control bits | data bits | target bits, with '*' on masked steps.
func FormatSample(e Episode, b int) (string, error) {
	if b < 0 || b >= e.Inputs.Batch {
		return "", fmt.Errorf("batch index %d out of range [0, %d)", b, e.Inputs.Batch)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "sample %d: steps=%d control=%d data=%d pairs=%d x=%v y=%v\n",
		b, e.Inputs.Time, e.ControlBits, e.DataBits(), e.Layout.Subsequences(), e.Layout.XLengths, e.Layout.YLengths)
	for t := 0; t < e.Inputs.Time; t++ {
		row := e.Inputs.Row(b, t)
		marker := " "
		if e.Mask[b][t] {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%4d %s %s | %s | %s\n", t, marker, bitString(row[:e.ControlBits]), bitString(row[e.ControlBits:]), bitString(e.Targets.Row(b, t)))
	}
	return sb.String(), nil
}

func bitString(values []float64) string {
	var sb strings.Builder
	for _, v := range values {
		if v != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
