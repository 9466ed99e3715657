package bitblock

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrShapeMismatch = errors.New("block shape mismatch")

// Block is a dense [batch][time][bits] array of 0/1 values stored row-major.
type Block struct {
	Batch int
	Time  int
	Bits  int
	Data  []float64
}

func New(batch, time, bits int) Block {
	if batch < 0 || time < 0 || bits < 0 {
		panic(fmt.Sprintf("bitblock: negative shape [%d %d %d]", batch, time, bits))
	}
	return Block{Batch: batch, Time: time, Bits: bits, Data: make([]float64, batch*time*bits)}
}

// Bernoulli draws every element independently as 1 with probability bias.
func Bernoulli(rng *rand.Rand, batch, time, bits int, bias float64) Block {
	b := New(batch, time, bits)
	for i := range b.Data {
		if rng.Float64() < bias {
			b.Data[i] = 1
		}
	}
	return b
}

// Constant broadcasts pattern over every batch element and time-step.
func Constant(batch, time int, pattern []float64) Block {
	b := New(batch, time, len(pattern))
	for row := 0; row < batch*time; row++ {
		copy(b.Data[row*b.Bits:(row+1)*b.Bits], pattern)
	}
	return b
}

func (b Block) Shape() [3]int {
	return [3]int{b.Batch, b.Time, b.Bits}
}

func (b Block) index(batch, t, bit int) int {
	return (batch*b.Time+t)*b.Bits + bit
}

func (b Block) At(batch, t, bit int) float64 {
	return b.Data[b.index(batch, t, bit)]
}

// Set writes in place; only the stage that created b may call it.
func (b Block) Set(batch, t, bit int, v float64) {
	b.Data[b.index(batch, t, bit)] = v
}

// Row returns a view of the bit vector at (batch, t).
func (b Block) Row(batch, t int) []float64 {
	start := b.index(batch, t, 0)
	return b.Data[start : start+b.Bits]
}

func (b Block) Clone() Block {
	out := Block{Batch: b.Batch, Time: b.Time, Bits: b.Bits, Data: make([]float64, len(b.Data))}
	copy(out.Data, b.Data)
	return out
}

func (b Block) SliceTime(from, to int) (Block, error) {
	if from < 0 || to > b.Time || from > to {
		return Block{}, fmt.Errorf("time slice [%d:%d] out of range for %d steps", from, to, b.Time)
	}
	out := New(b.Batch, to-from, b.Bits)
	for batch := 0; batch < b.Batch; batch++ {
		src := b.Data[b.index(batch, from, 0):b.index(batch, from, 0)+(to-from)*b.Bits]
		copy(out.Data[out.index(batch, 0, 0):], src)
	}
	return out, nil
}

func (b Block) SliceBits(from, to int) (Block, error) {
	if from < 0 || to > b.Bits || from > to {
		return Block{}, fmt.Errorf("bit slice [%d:%d] out of range for %d bits", from, to, b.Bits)
	}
	out := New(b.Batch, b.Time, to-from)
	for batch := 0; batch < b.Batch; batch++ {
		for t := 0; t < b.Time; t++ {
			copy(out.Row(batch, t), b.Row(batch, t)[from:to])
		}
	}
	return out, nil
}

// ConcatTime joins blocks along the time axis. Batch and bit widths must agree.
func ConcatTime(blocks ...Block) (Block, error) {
	if len(blocks) == 0 {
		return Block{}, errors.New("concat requires at least one block")
	}
	batch, bits := blocks[0].Batch, blocks[0].Bits
	total := 0
	for i, blk := range blocks {
		if blk.Batch != batch || blk.Bits != bits {
			return Block{}, fmt.Errorf("%w: part %d is [%d _ %d], want [%d _ %d]", ErrShapeMismatch, i, blk.Batch, blk.Bits, batch, bits)
		}
		total += blk.Time
	}

	out := New(batch, total, bits)
	for bt := 0; bt < batch; bt++ {
		offset := 0
		for _, blk := range blocks {
			if blk.Time == 0 {
				continue
			}
			src := blk.Data[blk.index(bt, 0, 0) : blk.index(bt, 0, 0)+blk.Time*bits]
			copy(out.Data[out.index(bt, offset, 0):], src)
			offset += blk.Time
		}
	}
	return out, nil
}

// ConcatBits joins two blocks along the bit axis, inserting right at index at of left.
func ConcatBits(left, right Block, at int) (Block, error) {
	if left.Batch != right.Batch || left.Time != right.Time {
		return Block{}, fmt.Errorf("%w: [%d %d _] vs [%d %d _]", ErrShapeMismatch, left.Batch, left.Time, right.Batch, right.Time)
	}
	if at < 0 || at > left.Bits {
		return Block{}, fmt.Errorf("insertion point %d out of range for %d bits", at, left.Bits)
	}
	out := New(left.Batch, left.Time, left.Bits+right.Bits)
	for batch := 0; batch < left.Batch; batch++ {
		for t := 0; t < left.Time; t++ {
			dst := out.Row(batch, t)
			src := left.Row(batch, t)
			n := copy(dst, src[:at])
			n += copy(dst[n:], right.Row(batch, t))
			copy(dst[n:], src[at:])
		}
	}
	return out, nil
}

func (b Block) Equal(other Block) bool {
	if b.Shape() != other.Shape() {
		return false
	}
	for i := range b.Data {
		if b.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}
