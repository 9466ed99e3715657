package swaprecall

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"swaprecall/internal/model"
	"swaprecall/internal/problem"
	"swaprecall/internal/stats"
	"swaprecall/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "swaprecall.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store     storage.Store
	storeKind string
	registry  *problem.Registry

	artifactsDir string
	exportsDir   string
}

type GenerateRequest struct {
	RunID    string
	Problem  string
	Config   problem.Config
	Seed     int64
	Episodes int
	Workers  int
}

type GenerateSummary struct {
	RunID        string
	Problem      string
	ArtifactsDir string
	Episodes     []stats.EpisodeSummary
	TotalSteps   int
	TotalBits    int
}

type RunItem struct {
	RunID        string
	Problem      string
	CreatedAtUTC string
	Seed         int64
	Episodes     int
	Workers      int
	Config       problem.Config
}

type EpisodeRequest struct {
	RunID  string
	Latest bool
	Index  int
}

type EpisodeResult struct {
	RunID   string
	Index   int
	Seed    int64
	Episode problem.Episode
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
	Episodes  int
}

type ProblemItem struct {
	Name        string
	Description string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		storeKind:    storeKind,
		registry:     problem.DefaultRegistry(),
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Reset(ctx context.Context) error {
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Problems() []ProblemItem {
	names := c.registry.Names()
	items := make([]ProblemItem, 0, len(names))
	for _, name := range names {
		item := ProblemItem{Name: name}
		if p, err := c.registry.Build(name, problem.DefaultConfig()); err == nil {
			if described, ok := p.(problem.DescribedProblem); ok {
				item.Description = described.Description()
			}
		}
		items = append(items, item)
	}
	return items
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateSummary, error) {
	if req.Problem == "" {
		req.Problem = problem.InterruptionSwapRecallName
	}
	if req.Episodes <= 0 {
		req.Episodes = 1
	}
	if req.Workers <= 0 {
		req.Workers = 1
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	p, err := c.registry.Build(req.Problem, req.Config)
	if err != nil {
		return GenerateSummary{}, err
	}
	if err := c.store.Init(ctx); err != nil {
		return GenerateSummary{}, err
	}

	generated, err := problem.GenerateEpisodes(ctx, p, problem.GenerateConfig{
		Count:   req.Episodes,
		Seed:    req.Seed,
		Workers: req.Workers,
	})
	if err != nil {
		return GenerateSummary{}, fmt.Errorf("generate %s: %w", p.Name(), err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              req.RunID,
		Problem:         p.Name(),
		Config:          req.Config.Record(),
		Seed:            req.Seed,
		Episodes:        req.Episodes,
		Workers:         req.Workers,
		CreatedAtUTC:    createdAt,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return GenerateSummary{}, fmt.Errorf("save run %s: %w", req.RunID, err)
	}

	summary := GenerateSummary{RunID: req.RunID, Problem: p.Name(), Episodes: make([]stats.EpisodeSummary, 0, len(generated))}
	for _, g := range generated {
		rec := g.ToRecord(req.RunID)
		rec.VersionedRecord = storage.Versioned()
		if err := c.store.SaveEpisode(ctx, rec); err != nil {
			return GenerateSummary{}, fmt.Errorf("save episode %s/%d: %w", req.RunID, g.Index, err)
		}
		summary.Episodes = append(summary.Episodes, summarizeEpisode(g))
		summary.TotalSteps += g.Episode.Inputs.Time
		summary.TotalBits += len(g.Episode.Inputs.Data)
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:     req.RunID,
			Problem:   p.Name(),
			Generator: req.Config.Record(),
			Seed:      req.Seed,
			Episodes:  req.Episodes,
			Workers:   req.Workers,
			StoreKind: c.storeKind,
		},
		Episodes: summary.Episodes,
	})
	if err != nil {
		return GenerateSummary{}, fmt.Errorf("write artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        req.RunID,
		Problem:      p.Name(),
		Seed:         req.Seed,
		Episodes:     req.Episodes,
		Workers:      req.Workers,
		TotalSteps:   summary.TotalSteps,
		CreatedAtUTC: createdAt,
	}); err != nil {
		return GenerateSummary{}, fmt.Errorf("index run: %w", err)
	}
	summary.ArtifactsDir = runDir
	return summary, nil
}

// Runs lists runs known to the store, newest first. Limit <= 0 returns all.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	items := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, RunItem{
			RunID:        run.ID,
			Problem:      run.Problem,
			CreatedAtUTC: run.CreatedAtUTC,
			Seed:         run.Seed,
			Episodes:     run.Episodes,
			Workers:      run.Workers,
			Config:       problem.ConfigFromRecord(run.Config),
		})
	}
	return items, nil
}

func (c *Client) Episode(ctx context.Context, req EpisodeRequest) (EpisodeResult, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return EpisodeResult{}, err
	}
	rec, ok, err := c.store.GetEpisode(ctx, runID, req.Index)
	if err != nil {
		return EpisodeResult{}, err
	}
	if !ok {
		return c.regenerateEpisode(ctx, runID, req.Index)
	}
	episode, err := problem.EpisodeFromRecord(rec)
	if err != nil {
		return EpisodeResult{}, err
	}
	return EpisodeResult{RunID: runID, Index: rec.Index, Seed: rec.Seed, Episode: episode}, nil
}

// regenerateEpisode rebuilds an episode from the run's artifact config. Episodes
// are a pure function of config and seed, so this matches what was generated.
func (c *Client) regenerateEpisode(ctx context.Context, runID string, index int) (EpisodeResult, error) {
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return EpisodeResult{}, err
	}
	if !ok || index < 0 || index >= cfg.Episodes {
		return EpisodeResult{}, fmt.Errorf("episode not found: %s/%d", runID, index)
	}
	p, err := c.registry.Build(cfg.Problem, problem.ConfigFromRecord(cfg.Generator))
	if err != nil {
		return EpisodeResult{}, err
	}
	seed := problem.EpisodeSeed(cfg.Seed, index)
	episode, err := p.GenerateBatch(ctx, rand.New(rand.NewSource(seed)))
	if err != nil {
		return EpisodeResult{}, err
	}
	return EpisodeResult{RunID: runID, Index: index, Seed: seed, Episode: episode}, nil
}

func (c *Client) regenerateRecords(ctx context.Context, runID string) ([]model.EpisodeRecord, error) {
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil || !ok {
		return nil, err
	}
	records := make([]model.EpisodeRecord, 0, cfg.Episodes)
	for i := 0; i < cfg.Episodes; i++ {
		res, err := c.regenerateEpisode(ctx, runID, i)
		if err != nil {
			return nil, err
		}
		g := problem.GeneratedEpisode{Index: res.Index, Seed: res.Seed, Episode: res.Episode}
		rec := g.ToRecord(runID)
		rec.VersionedRecord = storage.Versioned()
		records = append(records, rec)
	}
	return records, nil
}

// Export copies run artifacts and writes every stored episode next to them.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = c.exportsDir
	}

	dir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, outDir)
	if err != nil {
		return ExportSummary{}, err
	}
	episodes, err := c.store.ListEpisodes(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if len(episodes) == 0 {
		episodes, err = c.regenerateRecords(ctx, runID)
		if err != nil {
			return ExportSummary{}, err
		}
	}
	for _, rec := range episodes {
		if _, err := stats.WriteEpisodeRecord(filepath.Join(dir, "episodes"), rec); err != nil {
			return ExportSummary{}, fmt.Errorf("export episode %s/%d: %w", runID, rec.Index, err)
		}
	}
	return ExportSummary{RunID: runID, Directory: dir, Episodes: len(episodes)}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if err := c.store.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" && latest {
		return "", errors.New("use either run id or latest, not both")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id is required (or use latest)")
	}

	// Memory stores do not outlive the process; fall back to the artifact index.
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) > 0 {
		return runs[0].ID, nil
	}
	index, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(index) == 0 {
		return "", errors.New("no runs available")
	}
	return index[0].RunID, nil
}

func summarizeEpisode(g problem.GeneratedEpisode) stats.EpisodeSummary {
	layout := g.Episode.Layout
	return stats.EpisodeSummary{
		Index:        g.Index,
		Seed:         g.Seed,
		Subsequences: layout.Subsequences(),
		XLengths:     layout.XLengths,
		YLengths:     layout.YLengths,
		TotalTime:    layout.TotalTime(),
		MaskedSteps:  layout.MaskedSteps(),
		RecallStart:  layout.RecallStart(),
	}
}
