package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/lepinkainen/ratingsync/internal/config"
	"github.com/lepinkainen/ratingsync/internal/input"
	"github.com/lepinkainen/ratingsync/internal/output"
)

var (
	loadConfig   = func() (config.Config, error) { return config.Load(viper.GetViper()) }
	loadTitles   = input.LoadTitles
	newProcessor = buildProcessor
	writeSQLite  = output.WriteSQLite
)

// RunCmd represents the batch run command
type RunCmd struct {
	Input  string `short:"f" help:"Path to titles CSV file (columns: title, bangumi, anilist, myanimelist, filmarks)"`
	JSON   string `help:"Write results to this JSON file"`
	YAML   string `help:"Write results to this YAML file"`
	SQLite string `help:"Write results to this SQLite database"`
}

func (r *RunCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Read from config if value not provided via flag
	path := firstNonEmpty(r.Input, cfg.Input)
	if path == "" {
		return fmt.Errorf("input CSV file is required (provide via --input flag or input in config)")
	}
	cfg.Output.JSON = firstNonEmpty(r.JSON, cfg.Output.JSON)
	cfg.Output.YAML = firstNonEmpty(r.YAML, cfg.Output.YAML)
	cfg.Output.SQLite = firstNonEmpty(r.SQLite, cfg.Output.SQLite)

	titles, err := loadTitles(path)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		slog.Warn("No titles to process", "input", path)
		return nil
	}

	processor, closeFn, err := newProcessor(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			slog.Warn("Failed to close response cache", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, runErr := processor.Process(ctx, titles)
	if runErr != nil {
		slog.Warn("Run interrupted, writing partial results", "processed", len(records), "total", len(titles))
	}

	doc := output.NewDocument(cfg.Window, records, processor.Ledger().Entries())
	if err := writeOutputs(cfg.Output, doc); err != nil {
		return err
	}
	output.LogRecords(doc)
	output.LogLedger(doc.DateErrors)

	return runErr
}

func writeOutputs(cfg config.Output, doc output.Document) error {
	if cfg.JSON != "" {
		if err := output.WriteJSON(cfg.JSON, doc, cfg.Overwrite); err != nil {
			return err
		}
	}
	if cfg.YAML != "" {
		if err := output.WriteYAML(cfg.YAML, doc, cfg.Overwrite); err != nil {
			return err
		}
	}
	if cfg.SQLite != "" {
		slog.Info("Writing SQLite database", "filename", cfg.SQLite)
		if err := writeSQLite(cfg.SQLite, doc); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

