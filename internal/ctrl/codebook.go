package ctrl

import (
	"errors"
	"fmt"
	"strings"
)

// MinControlBits is the narrowest control channel that can tell the markers apart.
const MinControlBits = 3

var (
	ErrTooFewControlBits = errors.New("too few control bits")
	ErrAmbiguousMarkers  = errors.New("control markers are ambiguous")
)

// Marker names the structural role of a time-step.
type Marker int

const (
	Data Marker = iota
	Dummy
	InterSeq
	InterSubseq
	StartX
	StartY

	numMarkers = int(StartY) + 1
)

var allMarkers = []Marker{Data, Dummy, InterSeq, InterSubseq, StartX, StartY}

func (m Marker) String() string {
	switch m {
	case Data:
		return "data"
	case Dummy:
		return "dummy"
	case InterSeq:
		return "inter_seq"
	case InterSubseq:
		return "inter_subseq"
	case StartX:
		return "start_x"
	case StartY:
		return "start_y"
	default:
		return fmt.Sprintf("marker(%d)", int(m))
	}
}

// Emitted reports whether the marker ever reaches an episode's input.
// StartY shares InterSubseq's pattern; the Y start is signalled by the
// inter-subsequence row, so it is never written on its own.
func (m Marker) Emitted() bool {
	return m != StartY
}

func basePattern(m Marker) []float64 {
	switch m {
	case Data:
		return []float64{0, 0, 0}
	case Dummy:
		return []float64{0, 0, 1}
	case InterSeq:
		return []float64{1, 1, 0}
	case InterSubseq:
		return []float64{0, 1, 0}
	case StartX:
		return []float64{1, 0, 0}
	case StartY:
		return []float64{0, 1, 0}
	default:
		return nil
	}
}

// Codebook maps markers to fixed-width control patterns.
type Codebook struct {
	width    int
	patterns [numMarkers][]float64
}

func NewCodebook(controlBits int) (Codebook, error) {
	if controlBits < MinControlBits {
		return Codebook{}, fmt.Errorf("%w: need at least %d, got %d", ErrTooFewControlBits, MinControlBits, controlBits)
	}
	cb := Codebook{width: controlBits}
	for _, m := range allMarkers {
		p := make([]float64, controlBits)
		copy(p, basePattern(m))
		cb.patterns[m] = p
	}

	seen := make(map[string]Marker, len(allMarkers))
	for _, m := range allMarkers {
		if !m.Emitted() {
			continue
		}
		key := patternKey(cb.patterns[m])
		if prev, ok := seen[key]; ok {
			return Codebook{}, fmt.Errorf("%w: %s and %s share pattern %s", ErrAmbiguousMarkers, prev, m, key)
		}
		seen[key] = m
	}
	return cb, nil
}

func (c Codebook) Width() int {
	return c.width
}

// Pattern returns a copy of the marker's control vector.
func (c Codebook) Pattern(m Marker) []float64 {
	if m < 0 || int(m) >= numMarkers || c.patterns[m] == nil {
		return nil
	}
	out := make([]float64, len(c.patterns[m]))
	copy(out, c.patterns[m])
	return out
}

// Matches reports whether a control slice equals the marker's pattern on every channel.
func (c Codebook) Matches(m Marker, control []float64) bool {
	if m < 0 || int(m) >= numMarkers {
		return false
	}
	p := c.patterns[m]
	if len(control) != len(p) {
		return false
	}
	for i := range p {
		if control[i] != p[i] {
			return false
		}
	}
	return true
}

func patternKey(p []float64) string {
	var sb strings.Builder
	for _, v := range p {
		if v != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
