//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateCommandSQLitePersistsEpisodes(t *testing.T) {
	workdir := chdirTemp(t)
	dbPath := filepath.Join(workdir, "swaprecall.db")

	if err := run(context.Background(), []string{"init", "--store", "sqlite", "--db-path", dbPath}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"generate",
			"--store", "sqlite",
			"--db-path", dbPath,
			"--run-id", "sqlite-run",
			"--episodes", "3",
			"--workers", "2",
			"--seed", "11",
		})
	}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"show", "--store", "sqlite", "--db-path", dbPath, "--run-id", "sqlite-run", "--episode", "2"})
	})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "run_id=sqlite-run episode=2") {
		t.Fatalf("unexpected show output: %s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"export", "--store", "sqlite", "--db-path", dbPath, "--latest"})
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "episodes=3") {
		t.Fatalf("unexpected export output: %s", out)
	}

	if err := run(context.Background(), []string{"reset", "--store", "sqlite", "--db-path", dbPath}); err != nil {
		t.Fatalf("reset: %v", err)
	}
}
