// Package output renders run records for files and databases.
package output

import (
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/pipeline"
	"github.com/lepinkainen/ratingsync/internal/reconcile"
)

// PlatformView is one platform's result as written to output. Every text
// field holds data or a sentinel diagnostic.
type PlatformView struct {
	Platform     string `json:"platform" yaml:"platform"`
	Status       string `json:"status" yaml:"status"`
	Attempt      string `json:"attempt" yaml:"attempt"`
	Name         string `json:"name" yaml:"name"`
	URL          string `json:"url" yaml:"url"`
	Score        string `json:"score" yaml:"score"`
	NativeScore  string `json:"native_score" yaml:"native_score"`
	Votes        string `json:"votes" yaml:"votes"`
	Period       string `json:"date" yaml:"date"`
	FallbackFrom string `json:"fallback_from,omitempty" yaml:"fallback_from,omitempty"`
	FallbackKey  string `json:"fallback_key,omitempty" yaml:"fallback_key,omitempty"`
}

// RecordView is one title as written to output.
type RecordView struct {
	Title      string         `json:"title" yaml:"title"`
	SearchKey  string         `json:"search_key" yaml:"search_key"`
	Platforms  []PlatformView `json:"platforms" yaml:"platforms"`
	DateCheck  string         `json:"date_check" yaml:"date_check"`
	Diagnostic string         `json:"date_diagnostic,omitempty" yaml:"date_diagnostic,omitempty"`
}

// Document is the complete file output of a run.
type Document struct {
	Window     string            `json:"window" yaml:"window"`
	Records    []RecordView      `json:"records" yaml:"records"`
	DateErrors []reconcile.Entry `json:"date_errors" yaml:"date_errors"`
}

// NewDocument builds the output document for a run.
func NewDocument(window model.YearWindow, records []pipeline.Record, entries []reconcile.Entry) Document {
	doc := Document{
		Window:     window.String(),
		Records:    make([]RecordView, 0, len(records)),
		DateErrors: entries,
	}
	if doc.DateErrors == nil {
		doc.DateErrors = []reconcile.Entry{}
	}
	for _, rec := range records {
		doc.Records = append(doc.Records, NewRecordView(rec))
	}
	return doc
}

// NewRecordView renders a record in platform order.
func NewRecordView(rec pipeline.Record) RecordView {
	view := RecordView{
		Title:     rec.Title.Original,
		SearchKey: rec.Title.SearchKey,
		DateCheck: rec.Report.Kind.String(),
	}
	if rec.Report.Ledgered() {
		view.Diagnostic = rec.Report.Diagnostic
	}
	for _, res := range rec.Ordered() {
		pv := newPlatformView(res)
		if fb, ok := rec.Fallbacks[res.Platform]; ok {
			pv.FallbackFrom = string(fb.Peer)
			pv.FallbackKey = fb.Key
		}
		view.Platforms = append(view.Platforms, pv)
	}
	return view
}

func newPlatformView(res model.Result) PlatformView {
	return PlatformView{
		Platform:    string(res.Platform),
		Status:      res.Status.String(),
		Attempt:     res.Attempt.String(),
		Name:        res.NameText(),
		URL:         res.URLText(),
		Score:       res.ScoreText(),
		NativeScore: res.NativeScoreText(),
		Votes:       res.VotesText(),
		Period:      res.PeriodText(),
	}
}
