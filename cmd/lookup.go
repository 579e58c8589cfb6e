package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/output"
	"github.com/lepinkainen/ratingsync/internal/pipeline"
)

var stdout io.Writer = os.Stdout

// LookupCmd represents the single title lookup command
type LookupCmd struct {
	Title       string `arg:"" help:"Title to look up"`
	Bangumi     string `help:"Bangumi subject URL to use instead of searching"`
	AniList     string `name:"anilist" help:"AniList anime URL to use instead of searching"`
	MyAnimeList string `name:"myanimelist" help:"MyAnimeList anime URL to use instead of searching"`
	Filmarks    string `help:"Filmarks anime URL to use instead of searching"`
}

func (l *LookupCmd) Run() error {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("title is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	processor, closeFn, err := newProcessor(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	title := model.NewTitle(l.Title, l.seeds())
	rec := processor.ProcessOne(ctx, title)

	doc := output.NewDocument(cfg.Window, []pipeline.Record{rec}, processor.Ledger().Entries())
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc.Records[0])
}

func (l *LookupCmd) seeds() map[model.Platform]string {
	return map[model.Platform]string{
		model.Bangumi:     l.Bangumi,
		model.AniList:     l.AniList,
		model.MyAnimeList: l.MyAnimeList,
		model.Filmarks:    l.Filmarks,
	}
}
