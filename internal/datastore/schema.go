package datastore

// Table names written by a run.
const (
	ResultsTable    = "results"
	DateErrorsTable = "date_errors"
)

// ResultsSchema holds one row per title and platform. Text columns carry
// either data or a sentinel diagnostic.
const ResultsSchema = `CREATE TABLE IF NOT EXISTS results (
	title TEXT NOT NULL,
	platform TEXT NOT NULL,
	status TEXT NOT NULL,
	attempt TEXT NOT NULL,
	name TEXT,
	url TEXT,
	score TEXT,
	native_score TEXT,
	votes TEXT,
	period TEXT,
	PRIMARY KEY (title, platform)
)`

// DateErrorsSchema holds the date error ledger.
const DateErrorsSchema = `CREATE TABLE IF NOT EXISTS date_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	error TEXT NOT NULL
)`

// Schemas lists every table created by Init.
var Schemas = []string{ResultsSchema, DateErrorsSchema}

// Init creates every table a run writes to.
func Init(s Store) error {
	for _, schema := range Schemas {
		if err := s.CreateTable(schema); err != nil {
			return err
		}
	}
	return nil
}
