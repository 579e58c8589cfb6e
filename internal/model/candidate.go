package model

import "fmt"

// Candidate is one search hit awaiting year validation. Payload carries
// whatever the platform fetched while determining the year so the detail
// step can reuse it.
type Candidate struct {
	ID      string
	Name    string
	Year    int
	Period  Period
	Payload any
}

func (c *Candidate) String() string {
	if c.Name == "" {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}
