package problem

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

type GenerateConfig struct {
	Count   int
	Seed    int64
	Workers int
}

// GeneratedEpisode pairs an episode with the seed that reproduces it.
type GeneratedEpisode struct {
	Index   int
	Seed    int64
	Episode Episode
}

// EpisodeSeed is the seed of episode idx within a run seeded with seed.
func EpisodeSeed(seed int64, idx int) int64 {
	return seed + int64(idx)
}

// GenerateEpisodes fans generation out over a worker pool. Every episode owns
// its random source, so results do not depend on the worker count.
func GenerateEpisodes(ctx context.Context, p Problem, cfg GenerateConfig) ([]GeneratedEpisode, error) {
	if p == nil {
		return nil, errors.New("problem is required")
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("episode count must be > 0, got %d", cfg.Count)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	type result struct {
		idx     int
		episode Episode
		err     error
	}

	jobs := make(chan int)
	results := make(chan result, cfg.Count)

	workerCount := cfg.Workers
	if workerCount > cfg.Count {
		workerCount = cfg.Count
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: idx, err: err}
					continue
				}
				rng := rand.New(rand.NewSource(EpisodeSeed(cfg.Seed, idx)))
				episode, err := p.GenerateBatch(ctx, rng)
				results <- result{idx: idx, episode: episode, err: err}
			}
		}()
	}

	for i := 0; i < cfg.Count; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]GeneratedEpisode, cfg.Count)
	var firstErr error
	firstErrIdx := cfg.Count
	for res := range results {
		if res.err != nil {
			if res.idx < firstErrIdx {
				firstErr = fmt.Errorf("episode %d: %w", res.idx, res.err)
				firstErrIdx = res.idx
			}
			continue
		}
		out[res.idx] = GeneratedEpisode{Index: res.idx, Seed: EpisodeSeed(cfg.Seed, res.idx), Episode: res.episode}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
