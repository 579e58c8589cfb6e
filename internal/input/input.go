// Package input loads the list of titles to process.
package input

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/ratingsync/internal/csvutil"
	"github.com/lepinkainen/ratingsync/internal/model"
)

// TitleColumn holds the title name. Every other recognised column is named
// after a platform and holds an optional seeded link.
const TitleColumn = "title"

// LoadTitles reads titles from a CSV file. Rows with a blank title are
// skipped.
func LoadTitles(path string) ([]model.Title, error) {
	titles, err := csvutil.ProcessCSV(path, parseRow, csvutil.ProcessorOptions{
		Required: []string{TitleColumn},
	})
	if err != nil {
		return nil, fmt.Errorf("load titles from %s: %w", path, err)
	}
	return titles, nil
}

func parseRow(r csvutil.Row) (model.Title, error) {
	name := r.Get(TitleColumn)
	if name == "" {
		slog.Warn("Skipping row without a title", "line", r.Line)
		return model.Title{}, csvutil.ErrSkip
	}

	seeds := make(map[model.Platform]string)
	for _, p := range model.Platforms() {
		if link := r.Get(string(p)); link != "" {
			seeds[p] = link
		}
	}
	return model.NewTitle(name, seeds), nil
}
