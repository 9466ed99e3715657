package ctrl

import (
	"fmt"

	"swaprecall/internal/bitblock"
)

// AddCtrl inserts pattern into every time-step of block at bit index at.
func AddCtrl(block bitblock.Block, pattern []float64, at int) (bitblock.Block, error) {
	marker := bitblock.Constant(block.Batch, block.Time, pattern)
	return bitblock.ConcatBits(block, marker, at)
}

// Augmented is the marker-tagged decomposition of one raw sub-sequence.
type Augmented struct {
	Start *bitblock.Block
	Data  bitblock.Block
	Dummy bitblock.Block
}

// Parts returns the blocks in emission order, dummy last.
func (a Augmented) Parts() []bitblock.Block {
	return append(a.Leading(), a.Dummy)
}

// Leading returns every part except the trailing dummy.
func (a Augmented) Leading() []bitblock.Block {
	parts := make([]bitblock.Block, 0, 3)
	if a.Start != nil {
		parts = append(parts, *a.Start)
	}
	return append(parts, a.Data)
}

// Augment tags a raw [batch, length, data_bits] block with control markers and
// builds its zero-payload dummy of the same length.
func Augment(block bitblock.Block, codebook Codebook, start Marker, addMarkerData bool) (Augmented, error) {
	if block.Bits == 0 {
		return Augmented{}, fmt.Errorf("augment requires at least one data bit")
	}

	var out Augmented
	if addMarkerData {
		marker, err := MarkerRow(codebook, start, block.Batch, block.Bits)
		if err != nil {
			return Augmented{}, fmt.Errorf("augment start marker: %w", err)
		}
		out.Start = &marker
	}

	data, err := AddCtrl(block, codebook.Pattern(Data), 0)
	if err != nil {
		return Augmented{}, fmt.Errorf("augment data: %w", err)
	}
	out.Data = data

	dummy, err := AddCtrl(bitblock.New(block.Batch, block.Time, block.Bits), codebook.Pattern(Dummy), 0)
	if err != nil {
		return Augmented{}, fmt.Errorf("augment dummy: %w", err)
	}
	out.Dummy = dummy
	return out, nil
}

// MarkerRow builds a single zero-payload time-step tagged with m.
func MarkerRow(codebook Codebook, m Marker, batch, dataBits int) (bitblock.Block, error) {
	return AddCtrl(bitblock.New(batch, 1, dataBits), codebook.Pattern(m), 0)
}
