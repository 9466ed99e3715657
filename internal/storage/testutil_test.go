package storage

import "swaprecall/internal/model"

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Problem:         "interruption-swap-recall",
		Config: model.GeneratorConfig{
			BatchSize: 1, ControlBits: 3, DataBits: 8,
			MinSequenceLength: 1, MaxSequenceLength: 10,
			NumSubseqMin: 1, NumSubseqMax: 4,
			Bias: 0.5, Rotation: 0.5,
		},
		Seed:         7,
		Episodes:     2,
		Workers:      1,
		CreatedAtUTC: createdAt,
	}
}

func sampleEpisode(runID string, index int) model.EpisodeRecord {
	return model.EpisodeRecord{
		VersionedRecord: Versioned(),
		RunID:           runID,
		Index:           index,
		Seed:            int64(7 + index),
		ControlBits:     3,
		XLengths:        []int{1},
		YLengths:        []int{1},
		Inputs:          model.Tensor{Shape: []int{1, 7, 4}, Bits: make([]byte, 28)},
		Targets:         model.Tensor{Shape: []int{1, 7, 1}, Bits: []byte{0, 0, 0, 1, 0, 0, 1}},
		Mask:            model.Tensor{Shape: []int{1, 7}, Bits: []byte{0, 0, 0, 1, 0, 0, 1}},
	}
}
