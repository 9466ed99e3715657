package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"swaprecall/internal/problem"
	"swaprecall/internal/stats"
	"swaprecall/internal/storage"
	api "swaprecall/pkg/swaprecall"
)

const (
	artifactsDir = "runs"
	exportsDir   = "exports"
	dbPath       = "swaprecall.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "problems":
		return runProblems(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind   *string
	dbPath *string
	runs   *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", dbPath, "sqlite database path"),
		runs:   fs.String("artifacts-dir", artifactsDir, "run artifacts directory"),
	}
}

func (s storeFlags) client(exports string) (*api.Client, error) {
	return api.New(api.Options{
		StoreKind:    *s.kind,
		DBPath:       *s.dbPath,
		ArtifactsDir: *s.runs,
		ExportsDir:   exports,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *sf.kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *sf.kind)
	return nil
}

func runProblems(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("problems", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	for _, item := range client.Problems() {
		fmt.Printf("problem=%s description=%q\n", item.Name, item.Description)
	}
	return nil
}

func runGenerate(ctx context.Context, args []string) error {
	defaults := problem.DefaultConfig()

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional generate config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	problemName := fs.String("problem", problem.InterruptionSwapRecallName, "problem name")
	seed := fs.Int64("seed", 1, "rng seed")
	episodes := fs.Int("episodes", 1, "episode count")
	workers := fs.Int("workers", 4, "worker count")
	batchSize := fs.Int("batch-size", defaults.BatchSize, "sequences per episode")
	controlBits := fs.Int("control-bits", defaults.ControlBits, "control channel width (>= 3)")
	dataBits := fs.Int("data-bits", defaults.DataBits, "data channel width")
	minLength := fs.Int("min-length", defaults.MinSequenceLength, "minimum sub-sequence length")
	maxLength := fs.Int("max-length", defaults.MaxSequenceLength, "maximum sub-sequence length")
	subseqMin := fs.Int("subseq-min", defaults.NumSubseqMin, "minimum sub-sequence pairs")
	subseqMax := fs.Int("subseq-max", defaults.NumSubseqMax, "maximum sub-sequence pairs")
	bias := fs.Float64("bias", defaults.Bias, "probability of a 1 data bit")
	rotation := fs.Float64("rotation", defaults.Rotation, "Y rotation: fraction of length in [-1,1], steps otherwise")
	jsonOut := fs.Bool("json", false, "emit generate summary as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultGenerateRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = api.GenerateRequest{
			RunID:    *runID,
			Problem:  *problemName,
			Seed:     *seed,
			Episodes: *episodes,
			Workers:  *workers,
			Config: problem.Config{
				BatchSize:         *batchSize,
				ControlBits:       *controlBits,
				DataBits:          *dataBits,
				MinSequenceLength: *minLength,
				MaxSequenceLength: *maxLength,
				NumSubseqMin:      *subseqMin,
				NumSubseqMax:      *subseqMax,
				Bias:              *bias,
				Rotation:          *rotation,
			},
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"run-id":       *runID,
			"problem":      *problemName,
			"seed":         *seed,
			"episodes":     *episodes,
			"workers":      *workers,
			"batch-size":   *batchSize,
			"control-bits": *controlBits,
			"data-bits":    *dataBits,
			"min-length":   *minLength,
			"max-length":   *maxLength,
			"subseq-min":   *subseqMin,
			"subseq-max":   *subseqMax,
			"bias":         *bias,
			"rotation":     *rotation,
		})
	}
	if req.Episodes <= 0 {
		return errors.New("episodes must be > 0")
	}
	if req.Workers <= 0 {
		return errors.New("workers must be > 0")
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Printf("run_id=%s problem=%s episodes=%d steps=%s bits=%s artifacts=%s\n",
		summary.RunID,
		summary.Problem,
		len(summary.Episodes),
		humanize.Comma(int64(summary.TotalSteps)),
		humanize.Comma(int64(summary.TotalBits)),
		filepath.Clean(summary.ArtifactsDir),
	)
	for _, e := range summary.Episodes {
		fmt.Printf("episode=%d seed=%d pairs=%d steps=%d masked=%d recall_start=%d\n",
			e.Index, e.Seed, e.Subsequences, e.TotalTime, e.MaskedSteps, e.RecallStart)
	}
	return nil
}

func runRuns(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	runsDir := fs.String("artifacts-dir", artifactsDir, "run artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	entries, err := stats.ListRunIndex(*runsDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(entries) > *limit {
		entries = entries[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Printf("run_id=%s created_at=%s problem=%s seed=%d episodes=%d workers=%d steps=%s\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Problem,
			e.Seed,
			e.Episodes,
			e.Workers,
			humanize.Comma(int64(e.TotalSteps)),
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show an episode of the most recent run")
	index := fs.Int("episode", 0, "episode index within the run")
	sample := fs.Int("sample", 0, "batch element to render")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("show requires --run-id or --latest")
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.Episode(ctx, api.EpisodeRequest{RunID: *runID, Latest: *latest, Index: *index})
	if err != nil {
		return err
	}
	text, err := problem.FormatSample(result.Episode, *sample)
	if err != nil {
		return err
	}
	fmt.Printf("run_id=%s episode=%d seed=%d masked=%d\n", result.RunID, result.Index, result.Seed, result.Episode.Mask.Count(*sample))
	fmt.Print(text)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := sf.client(*outDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, api.ExportRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s episodes=%d\n", summary.RunID, filepath.Clean(summary.Directory), summary.Episodes)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: swaprecallctl <init|reset|problems|generate|runs|show|export> [flags]", msg)
}
