package bitblock

import (
	"errors"
	"fmt"
	"math"
)

var ErrZeroLength = errors.New("rotation requires a positive sequence length")

// RotationOffset resolves rotation into a right shift in [0, length).
// Values in [-1, 1] are a fraction of length, anything else an item count.
func RotationOffset(rotation float64, length int) (int, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrZeroLength, length)
	}
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return 0, fmt.Errorf("rotation must be finite, got %v", rotation)
	}
	if rotation >= -1 && rotation <= 1 {
		rotation *= float64(length)
	}
	// Half-to-even, matching numpy.round.
	shift := int(math.Mod(math.RoundToEven(rotation), float64(length)))
	if shift < 0 {
		shift += length
	}
	return shift, nil
}

// Rotate shifts block right along time: out[t] = in[(t-offset) mod length].
func Rotate(block Block, rotation float64, length int) (Block, error) {
	offset, err := RotationOffset(rotation, length)
	if err != nil {
		return Block{}, err
	}
	if block.Time != length {
		return Block{}, fmt.Errorf("%w: rotate length %d, block has %d steps", ErrShapeMismatch, length, block.Time)
	}
	if offset == 0 {
		return block.Clone(), nil
	}

	tail, err := block.SliceTime(length-offset, length)
	if err != nil {
		return Block{}, err
	}
	head, err := block.SliceTime(0, length-offset)
	if err != nil {
		return Block{}, err
	}
	return ConcatTime(tail, head)
}
