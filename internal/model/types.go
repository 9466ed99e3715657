package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Tensor packs a 0/1 array row-major, one byte per element.
type Tensor struct {
	Shape []int  `json:"shape"`
	Bits  []byte `json:"bits"`
}

// GeneratorConfig mirrors the recognized generator options.
type GeneratorConfig struct {
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

type RunRecord struct {
	VersionedRecord
	ID           string          `json:"id"`
	Problem      string          `json:"problem"`
	Config       GeneratorConfig `json:"config"`
	Seed         int64           `json:"seed"`
	Episodes     int             `json:"episodes"`
	Workers      int             `json:"workers"`
	CreatedAtUTC string          `json:"created_at_utc"`
}

type EpisodeRecord struct {
	VersionedRecord
	RunID       string `json:"run_id"`
	Index       int    `json:"index"`
	Seed        int64  `json:"seed"`
	ControlBits int    `json:"control_bits"`
	XLengths    []int  `json:"x_lengths"`
	YLengths    []int  `json:"y_lengths"`
	Inputs      Tensor `json:"inputs"`
	Targets     Tensor `json:"targets"`
	Mask        Tensor `json:"mask"`
}
