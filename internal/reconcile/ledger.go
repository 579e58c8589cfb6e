package reconcile

import "sync"

// Entry is one ledgered title.
type Entry struct {
	Title      string `json:"title" yaml:"title"`
	Diagnostic string `json:"error" yaml:"error"`
}

// Ledger accumulates date diagnostics for a run. It is safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends r when it carries a ledger-worthy diagnostic and reports
// whether it did.
func (l *Ledger) Record(r Report) bool {
	if !r.Ledgered() {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Title: r.Title, Diagnostic: r.Diagnostic})
	return true
}

// Entries returns a copy of the ledger in insertion order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
