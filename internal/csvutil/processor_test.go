package csvutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/lepinkainen/ratingsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string
	City string
}

func parsePerson(r Row) (person, error) {
	if r.Get("name") == "" {
		return person{}, ErrSkip
	}
	if r.Get("name") == "invalid" {
		return person{}, errors.New("bad name")
	}
	return person{Name: r.Get("Name"), City: r.Get("city")}, nil
}

func TestProcessCSV(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("test.csv", "\ufeffName, City \nAlice,NYC\n,LA\nBob\n")

	people, err := ProcessCSV(env.Path("test.csv"), parsePerson, ProcessorOptions{})
	require.NoError(t, err)
	assert.Equal(t, []person{{Name: "Alice", City: "NYC"}, {Name: "Bob"}}, people)
}

func TestProcessCSV_EmptyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("empty.csv", "")

	_, err := ProcessCSV(env.Path("empty.csv"), parsePerson, ProcessorOptions{})
	assert.Error(t, err)
}

func TestProcessCSV_MissingFile(t *testing.T) {
	env := testutil.NewTestEnv(t)

	_, err := ProcessCSV(env.Path("missing.csv"), parsePerson, ProcessorOptions{})
	assert.Error(t, err)
}

func TestProcess_RequiredColumns(t *testing.T) {
	_, err := Process(strings.NewReader("city\nNYC\n"), parsePerson, ProcessorOptions{Required: []string{"name"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "name"`)
}

func TestProcess_InvalidRecords(t *testing.T) {
	input := "name,city\ninvalid,X\nAlice,NYC\n"

	_, err := Process(strings.NewReader(input), parsePerson, ProcessorOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	people, err := Process(strings.NewReader(input), parsePerson, ProcessorOptions{SkipInvalid: true})
	require.NoError(t, err)
	assert.Len(t, people, 1)
}

func TestRowHas(t *testing.T) {
	rows, err := Process(strings.NewReader("Title,Bangumi\nx,y\n"), func(r Row) (bool, error) {
		return r.Has("bangumi") && !r.Has("anilist"), nil
	}, ProcessorOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, rows)
}
