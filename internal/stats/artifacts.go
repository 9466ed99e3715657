package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"swaprecall/internal/model"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID     string                `json:"run_id"`
	Problem   string                `json:"problem"`
	Generator model.GeneratorConfig `json:"generator"`
	Seed      int64                 `json:"seed"`
	Episodes  int                   `json:"episodes"`
	Workers   int                   `json:"workers"`
	StoreKind string                `json:"store_kind,omitempty"`
}

// EpisodeSummary describes the layout of one generated episode.
type EpisodeSummary struct {
	Index        int   `json:"index"`
	Seed         int64 `json:"seed"`
	Subsequences int   `json:"subsequences"`
	XLengths     []int `json:"x_lengths"`
	YLengths     []int `json:"y_lengths"`
	TotalTime    int   `json:"total_time"`
	MaskedSteps  int   `json:"masked_steps"`
	RecallStart  int   `json:"recall_start"`
}

type RunArtifacts struct {
	Config   RunConfig        `json:"config"`
	Episodes []EpisodeSummary `json:"episodes"`
}

type RunIndexEntry struct {
	RunID        string `json:"run_id"`
	Problem      string `json:"problem"`
	Seed         int64  `json:"seed"`
	Episodes     int    `json:"episodes"`
	Workers      int    `json:"workers"`
	TotalSteps   int    `json:"total_steps"`
	CreatedAtUTC string `json:"created_at_utc"`
}

var artifactFiles = []string{"config.json", "episodes.json", "episodes.csv"}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "episodes.json"), artifacts.Episodes); err != nil {
		return "", err
	}
	if err := writeEpisodesCSV(filepath.Join(runDir, "episodes.csv"), artifacts.Episodes); err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range artifactFiles {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadEpisodeSummaries(baseDir, runID string) ([]EpisodeSummary, bool, error) {
	path := filepath.Join(baseDir, runID, "episodes.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var summaries []EpisodeSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, false, err
	}
	return summaries, true, nil
}

// WriteEpisodeRecord stores one full episode as JSON under dir.
func WriteEpisodeRecord(dir string, record model.EpisodeRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("episode_%06d.json", record.Index))
	return path, writeJSON(path, record)
}

func writeEpisodesCSV(path string, summaries []EpisodeSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"index", "seed", "subsequences", "x_lengths", "y_lengths", "total_time", "masked_steps", "recall_start"}); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := writer.Write([]string{
			strconv.Itoa(s.Index),
			strconv.FormatInt(s.Seed, 10),
			strconv.Itoa(s.Subsequences),
			joinInts(s.XLengths),
			joinInts(s.YLengths),
			strconv.Itoa(s.TotalTime),
			strconv.Itoa(s.MaskedSteps),
			strconv.Itoa(s.RecallStart),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
