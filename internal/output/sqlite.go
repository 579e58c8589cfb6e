package output

import (
	"fmt"

	"github.com/lepinkainen/ratingsync/internal/datastore"
)

type resultRow struct {
	Title       string `db:"title"`
	Platform    string `db:"platform"`
	Status      string `db:"status"`
	Attempt     string `db:"attempt"`
	Name        string `db:"name"`
	URL         string `db:"url"`
	Score       string `db:"score"`
	NativeScore string `db:"native_score"`
	Votes       string `db:"votes"`
	Period      string `db:"period"`
}

type dateErrorRow struct {
	Title      string `db:"title"`
	Diagnostic string `db:"error"`
}

// WriteStore writes every platform row and ledger entry of doc to store.
// The store must already be connected.
func WriteStore(store datastore.Store, doc Document) error {
	if err := datastore.Init(store); err != nil {
		return err
	}

	var results []resultRow
	for _, rec := range doc.Records {
		for _, pv := range rec.Platforms {
			results = append(results, resultRow{
				Title:       rec.Title,
				Platform:    pv.Platform,
				Status:      pv.Status,
				Attempt:     pv.Attempt,
				Name:        pv.Name,
				URL:         pv.URL,
				Score:       pv.Score,
				NativeScore: pv.NativeScore,
				Votes:       pv.Votes,
				Period:      pv.Period,
			})
		}
	}
	if err := store.BatchInsert(datastore.ResultsTable, datastore.Rows(results)); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	dateErrors := make([]dateErrorRow, 0, len(doc.DateErrors))
	for _, e := range doc.DateErrors {
		dateErrors = append(dateErrors, dateErrorRow(e))
	}
	if err := store.BatchInsert(datastore.DateErrorsTable, datastore.Rows(dateErrors)); err != nil {
		return fmt.Errorf("write date errors: %w", err)
	}
	return nil
}

// WriteSQLite opens the database at path and writes doc to it.
func WriteSQLite(path string, doc Document) error {
	store := datastore.NewSQLiteStore(path)
	if err := store.Connect(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return WriteStore(store, doc)
}
