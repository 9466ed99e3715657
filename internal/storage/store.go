package storage

import (
	"context"

	"swaprecall/internal/model"
)

// Store defines persistence operations for generation runs and their episodes.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveEpisode(ctx context.Context, episode model.EpisodeRecord) error
	GetEpisode(ctx context.Context, runID string, index int) (model.EpisodeRecord, bool, error)
	ListEpisodes(ctx context.Context, runID string) ([]model.EpisodeRecord, error)
}
