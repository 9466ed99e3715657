package ctrl

import (
	"errors"
	"math/rand"
	"testing"

	"swaprecall/internal/bitblock"
)

func TestNewCodebookRejectsNarrowControl(t *testing.T) {
	for _, bits := range []int{0, 1, 2} {
		if _, err := NewCodebook(bits); !errors.Is(err, ErrTooFewControlBits) {
			t.Fatalf("control_bits=%d: expected ErrTooFewControlBits, got %v", bits, err)
		}
	}
}

func TestCodebookPatterns(t *testing.T) {
	cb, err := NewCodebook(4)
	if err != nil {
		t.Fatalf("new codebook: %v", err)
	}
	want := map[Marker][]float64{
		Data:        {0, 0, 0, 0},
		Dummy:       {0, 0, 1, 0},
		InterSeq:    {1, 1, 0, 0},
		InterSubseq: {0, 1, 0, 0},
		StartX:      {1, 0, 0, 0},
		StartY:      {0, 1, 0, 0},
	}
	for m, p := range want {
		got := cb.Pattern(m)
		if len(got) != len(p) {
			t.Fatalf("%s: width %d want %d", m, len(got), len(p))
		}
		for i := range p {
			if got[i] != p[i] {
				t.Fatalf("%s: pattern %v want %v", m, got, p)
			}
		}
		if !cb.Matches(m, p) {
			t.Fatalf("%s should match its own pattern", m)
		}
	}
	if cb.Matches(Dummy, []float64{0, 0, 1}) {
		t.Fatal("match must compare every control channel")
	}
}

func TestPatternReturnsCopy(t *testing.T) {
	cb, err := NewCodebook(3)
	if err != nil {
		t.Fatalf("new codebook: %v", err)
	}
	p := cb.Pattern(Dummy)
	p[2] = 0
	if !cb.Matches(Dummy, []float64{0, 0, 1}) {
		t.Fatal("mutating a returned pattern changed the codebook")
	}
}

func TestAugmentWithStartMarker(t *testing.T) {
	cb, err := NewCodebook(3)
	if err != nil {
		t.Fatalf("new codebook: %v", err)
	}
	raw := bitblock.Bernoulli(rand.New(rand.NewSource(5)), 2, 4, 3, 0.5)
	aug, err := Augment(raw, cb, StartX, true)
	if err != nil {
		t.Fatalf("augment: %v", err)
	}
	if aug.Start == nil {
		t.Fatal("expected a start marker")
	}
	if aug.Start.Shape() != [3]int{2, 1, 6} {
		t.Fatalf("start shape %v", aug.Start.Shape())
	}
	if !cb.Matches(StartX, aug.Start.Row(1, 0)[:3]) {
		t.Fatalf("start row %v", aug.Start.Row(1, 0))
	}

	parts := aug.Parts()
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if len(aug.Leading()) != 2 {
		t.Fatalf("expected 2 leading parts, got %d", len(aug.Leading()))
	}
	if !parts[2].Equal(aug.Dummy) {
		t.Fatal("dummy must be the last part")
	}

	for b := 0; b < 2; b++ {
		for step := 0; step < 4; step++ {
			data := aug.Data.Row(b, step)
			if !cb.Matches(Data, data[:3]) {
				t.Fatalf("data control %v", data[:3])
			}
			for k := 0; k < 3; k++ {
				if data[3+k] != raw.At(b, step, k) {
					t.Fatalf("payload changed at (%d,%d,%d)", b, step, k)
				}
			}
			dummy := aug.Dummy.Row(b, step)
			if !cb.Matches(Dummy, dummy[:3]) {
				t.Fatalf("dummy control %v", dummy[:3])
			}
			for _, v := range dummy[3:] {
				if v != 0 {
					t.Fatalf("dummy payload must be zero, got %v", dummy)
				}
			}
		}
	}
}

func TestAugmentWithoutStartMarker(t *testing.T) {
	cb, err := NewCodebook(3)
	if err != nil {
		t.Fatalf("new codebook: %v", err)
	}
	aug, err := Augment(bitblock.New(1, 2, 1), cb, StartY, false)
	if err != nil {
		t.Fatalf("augment: %v", err)
	}
	if aug.Start != nil {
		t.Fatal("unexpected start marker")
	}
	if len(aug.Parts()) != 2 {
		t.Fatalf("expected data and dummy, got %d parts", len(aug.Parts()))
	}
	if aug.Dummy.Time != 2 || aug.Dummy.Batch != 1 {
		t.Fatalf("dummy shape %v", aug.Dummy.Shape())
	}
}
