package problem

import (
	"context"
	"errors"
	"testing"
)

func TestEpisodeRecordRestoresEpisode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	p, err := NewInterruptionSwapRecall(cfg)
	if err != nil {
		t.Fatalf("new problem: %v", err)
	}
	generated, err := GenerateEpisodes(context.Background(), p, GenerateConfig{Count: 1, Seed: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rec := generated[0].ToRecord("run-a")
	if rec.RunID != "run-a" || rec.Seed != EpisodeSeed(4, 0) {
		t.Fatalf("unexpected record header %+v", rec)
	}
	restored, err := EpisodeFromRecord(rec)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	original := generated[0].Episode
	if !restored.Inputs.Equal(original.Inputs) || !restored.Targets.Equal(original.Targets) {
		t.Fatal("restored tensors differ")
	}
	if restored.Mask.Count(1) != original.Mask.Count(1) {
		t.Fatal("restored mask differs")
	}

	rec.Mask.Bits[len(rec.Mask.Bits)-1] = 0
	if _, err := EpisodeFromRecord(rec); !errors.Is(err, ErrMaskNotUniform) {
		t.Fatalf("expected non-uniform mask error, got %v", err)
	}
}

func TestConfigRecordConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rotation = -3
	if got := ConfigFromRecord(cfg.Record()); got != cfg {
		t.Fatalf("got %+v want %+v", got, cfg)
	}
}
