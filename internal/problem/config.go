package problem

import (
	"errors"
	"fmt"
	"math"

	"swaprecall/internal/ctrl"
)

var ErrInvalidConfig = errors.New("invalid problem configuration")

// ConfigError names the offending field of a rejected Config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Config holds the recognized generator options. Rotation is relative when it
// lies in [-1, 1] and an absolute item count otherwise.
type Config struct {
	BatchSize         int     `json:"batch_size"`
	ControlBits       int     `json:"control_bits"`
	DataBits          int     `json:"data_bits"`
	MinSequenceLength int     `json:"min_sequence_length"`
	MaxSequenceLength int     `json:"max_sequence_length"`
	NumSubseqMin      int     `json:"num_subseq_min"`
	NumSubseqMax      int     `json:"num_subseq_max"`
	Bias              float64 `json:"bias"`
	Rotation          float64 `json:"num_rotation"`
}

func DefaultConfig() Config {
	return Config{
		BatchSize:         1,
		ControlBits:       3,
		DataBits:          8,
		MinSequenceLength: 1,
		MaxSequenceLength: 10,
		NumSubseqMin:      1,
		NumSubseqMax:      4,
		Bias:              0.5,
		Rotation:          0.5,
	}
}

func (c Config) Validate() error {
	switch {
	case c.BatchSize < 1:
		return &ConfigError{Field: "batch_size", Reason: fmt.Sprintf("must be >= 1 (got %d)", c.BatchSize)}
	case c.ControlBits < ctrl.MinControlBits:
		return &ConfigError{Field: "control_bits", Reason: fmt.Sprintf("must be >= %d (got %d)", ctrl.MinControlBits, c.ControlBits)}
	case c.DataBits < 1:
		return &ConfigError{Field: "data_bits", Reason: fmt.Sprintf("must be >= 1 (got %d)", c.DataBits)}
	case c.MinSequenceLength < 1:
		return &ConfigError{Field: "min_sequence_length", Reason: fmt.Sprintf("must be >= 1 (got %d)", c.MinSequenceLength)}
	case c.MinSequenceLength > c.MaxSequenceLength:
		return &ConfigError{Field: "max_sequence_length", Reason: fmt.Sprintf("must be >= min_sequence_length (%d > %d)", c.MinSequenceLength, c.MaxSequenceLength)}
	case c.NumSubseqMin < 1:
		return &ConfigError{Field: "num_subseq_min", Reason: fmt.Sprintf("must be >= 1 (got %d)", c.NumSubseqMin)}
	case c.NumSubseqMin > c.NumSubseqMax:
		return &ConfigError{Field: "num_subseq_max", Reason: fmt.Sprintf("must be >= num_subseq_min (%d > %d)", c.NumSubseqMin, c.NumSubseqMax)}
	case math.IsNaN(c.Bias) || c.Bias < 0 || c.Bias > 1:
		return &ConfigError{Field: "bias", Reason: fmt.Sprintf("must be within [0, 1] (got %v)", c.Bias)}
	case math.IsNaN(c.Rotation) || math.IsInf(c.Rotation, 0):
		return &ConfigError{Field: "num_rotation", Reason: fmt.Sprintf("must be finite (got %v)", c.Rotation)}
	}
	return nil
}

// ConfigFromParams overlays a parameter dictionary onto base. Unknown keys are
// ignored; present keys must carry numbers.
func ConfigFromParams(base Config, params map[string]any) (Config, error) {
	cfg := base
	ints := []struct {
		key string
		dst *int
	}{
		{"batch_size", &cfg.BatchSize},
		{"control_bits", &cfg.ControlBits},
		{"data_bits", &cfg.DataBits},
		{"min_sequence_length", &cfg.MinSequenceLength},
		{"max_sequence_length", &cfg.MaxSequenceLength},
		{"num_subseq_min", &cfg.NumSubseqMin},
		{"num_subseq_max", &cfg.NumSubseqMax},
	}
	for _, field := range ints {
		raw, ok := params[field.key]
		if !ok {
			continue
		}
		v, ok := asInt(raw)
		if !ok {
			return Config{}, &ConfigError{Field: field.key, Reason: fmt.Sprintf("must be an integer (got %v)", raw)}
		}
		*field.dst = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"bias", &cfg.Bias},
		{"num_rotation", &cfg.Rotation},
	}
	for _, field := range floats {
		raw, ok := params[field.key]
		if !ok {
			continue
		}
		v, ok := asFloat64(raw)
		if !ok {
			return Config{}, &ConfigError{Field: field.key, Reason: fmt.Sprintf("must be a number (got %v)", raw)}
		}
		*field.dst = v
	}
	return cfg, nil
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
