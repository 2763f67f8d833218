package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/config"
)

func TestExportPipeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StoreDriver = "memory"
	cfg.SeedOnStart = true
	cfg.SeedFile = ""
	outputPath := filepath.Join(t.TempDir(), "pipeline")
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	if err := exportPipeline(context.Background(), cfg, outputPath, now, zap.NewNop()); err != nil {
		t.Fatalf("exportPipeline() error = %v", err)
	}

	f, err := excelize.OpenFile(outputPath + ".xlsx")
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Pipeline")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("Expected header plus 8 seeded candidates, got %d rows", len(rows))
	}
	if rows[1][0] != "cand-1" {
		t.Errorf("First exported candidate = %q, want cand-1", rows[1][0])
	}
}
