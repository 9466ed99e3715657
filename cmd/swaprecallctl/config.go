package main

import (
	"encoding/json"
	"fmt"
	"os"

	"swaprecall/internal/problem"
	api "swaprecall/pkg/swaprecall"
)

// loadGenerateRequestFromConfig reads a generate request from JSON. Generator
// fields may sit at the top level or under "generator", so a run's
// config.json artifact can be replayed as-is.
func loadGenerateRequestFromConfig(path string) (api.GenerateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.GenerateRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return api.GenerateRequest{}, err
	}

	req := api.GenerateRequest{Episodes: 1, Workers: 4, Seed: 1}
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["problem"]); ok {
		req.Problem = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["episodes"]); ok {
		req.Episodes = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}

	cfg, err := problem.ConfigFromParams(problem.DefaultConfig(), raw)
	if err != nil {
		return api.GenerateRequest{}, fmt.Errorf("config %s: %w", path, err)
	}
	if generator, ok := raw["generator"].(map[string]any); ok {
		cfg, err = problem.ConfigFromParams(cfg, generator)
		if err != nil {
			return api.GenerateRequest{}, fmt.Errorf("config %s generator: %w", path, err)
		}
	}
	req.Config = cfg
	return req, nil
}

func loadOrDefaultGenerateRequest(configPath string) (api.GenerateRequest, error) {
	if configPath == "" {
		return api.GenerateRequest{}, nil
	}
	return loadGenerateRequestFromConfig(configPath)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(req *api.GenerateRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "problem":
			req.Problem = v.(string)
		case "seed":
			req.Seed = v.(int64)
		case "episodes":
			req.Episodes = v.(int)
		case "workers":
			req.Workers = v.(int)
		case "batch-size":
			req.Config.BatchSize = v.(int)
		case "control-bits":
			req.Config.ControlBits = v.(int)
		case "data-bits":
			req.Config.DataBits = v.(int)
		case "min-length":
			req.Config.MinSequenceLength = v.(int)
		case "max-length":
			req.Config.MaxSequenceLength = v.(int)
		case "subseq-min":
			req.Config.NumSubseqMin = v.(int)
		case "subseq-max":
			req.Config.NumSubseqMax = v.(int)
		case "bias":
			req.Config.Bias = v.(float64)
		case "rotation":
			req.Config.Rotation = v.(float64)
		}
	}
}
