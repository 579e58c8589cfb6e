package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/viper"

	"github.com/lepinkainen/ratingsync/internal/aggregate"
	"github.com/lepinkainen/ratingsync/internal/cache"
	"github.com/lepinkainen/ratingsync/internal/config"
	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/output"
	"github.com/lepinkainen/ratingsync/internal/pipeline"
	"github.com/lepinkainen/ratingsync/internal/reconcile"
	"github.com/lepinkainen/ratingsync/internal/testutil"
)

type fakeProcessor struct {
	ledger  *reconcile.Ledger
	titles  []model.Title
	stopErr error
}

func (f *fakeProcessor) Process(ctx context.Context, titles []model.Title) ([]pipeline.Record, error) {
	var records []pipeline.Record
	for _, title := range titles {
		records = append(records, f.ProcessOne(ctx, title))
		if f.stopErr != nil {
			return records, f.stopErr
		}
	}
	return records, nil
}

func (f *fakeProcessor) ProcessOne(_ context.Context, title model.Title) pipeline.Record {
	f.titles = append(f.titles, title)
	results := make(map[model.Platform]model.Result)
	for _, p := range model.Platforms() {
		results[p] = model.Failed(p, model.StatusNotFound, nil)
	}
	if link := title.Seed(model.Bangumi); link != "" {
		res, err := model.NewResolved(model.Bangumi, link, title.Original, model.Details{Period: "202501"})
		if err != nil {
			panic(err)
		}
		results[model.Bangumi] = res
	}
	report := reconcile.FromResults(title.Original, results)
	f.ledger.Record(report)
	return pipeline.Record{Title: title, Results: results, Fallbacks: map[model.Platform]aggregate.Fallback{}, Report: report}
}

func (f *fakeProcessor) Ledger() *reconcile.Ledger {
	return f.ledger
}

func stubEngine(t *testing.T, proc *fakeProcessor) {
	t.Helper()
	resetCmdState(t)

	origConfig, origProcessor, origStdout := loadConfig, newProcessor, stdout
	t.Cleanup(func() {
		loadConfig, newProcessor, stdout = origConfig, origProcessor, origStdout
	})

	loadConfig = func() (config.Config, error) {
		return config.Config{Window: model.WindowFor(2025), Output: config.Output{Overwrite: true}}, nil
	}
	newProcessor = func(config.Config) (titleProcessor, func() error, error) {
		return proc, func() error { return nil }, nil
	}
}

func TestRunCmdRequiresInput(t *testing.T) {
	stubEngine(t, &fakeProcessor{ledger: reconcile.NewLedger()})

	err := (&RunCmd{}).Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "input CSV file is required")
}

func TestRunCmdWritesOutputs(t *testing.T) {
	proc := &fakeProcessor{ledger: reconcile.NewLedger()}
	stubEngine(t, proc)

	env := testutil.NewTestEnv(t)
	env.WriteFileString("titles.csv", "title,bangumi\nFrieren,https://bgm.tv/subject/400602\nDandadan,\n")

	cmd := &RunCmd{
		Input:  env.Path("titles.csv"),
		JSON:   env.Path("out", "results.json"),
		YAML:   env.Path("out", "results.yaml"),
		SQLite: env.Path("out", "results.db"),
	}
	assert.NoError(t, cmd.Run())
	assert.Equal(t, 2, len(proc.titles))

	var doc output.Document
	assert.NoError(t, json.Unmarshal([]byte(env.ReadFileString("out/results.json")), &doc))
	assert.Equal(t, "2025/2024", doc.Window)
	assert.Equal(t, 2, len(doc.Records))
	assert.Equal(t, "202501", doc.Records[0].Platforms[0].Period)
	assert.Equal(t, string(model.SentinelNotFound), doc.Records[1].Platforms[0].Score)
	assert.Equal(t, 1, len(doc.DateErrors))
	assert.Equal(t, "Frieren", doc.DateErrors[0].Title)

	assert.True(t, env.FileExists("out/results.yaml"))
	assert.True(t, env.FileExists("out/results.db"))
}

func TestRunCmdUsesConfiguredInput(t *testing.T) {
	proc := &fakeProcessor{ledger: reconcile.NewLedger()}
	stubEngine(t, proc)

	env := testutil.NewTestEnv(t)
	env.WriteFileString("titles.csv", "title\nFrieren\n")
	loadConfig = func() (config.Config, error) {
		return config.Config{Window: model.WindowFor(2025), Input: env.Path("titles.csv")}, nil
	}

	assert.NoError(t, (&RunCmd{}).Run())
	assert.Equal(t, 1, len(proc.titles))
}

func TestRunCmdWritesPartialResultsWhenInterrupted(t *testing.T) {
	proc := &fakeProcessor{
		ledger:  reconcile.NewLedger(),
		stopErr: errors.NewStopProcessingError("interrupted", 1),
	}
	stubEngine(t, proc)

	env := testutil.NewTestEnv(t)
	env.WriteFileString("titles.csv", "title\nA\nB\n")

	err := (&RunCmd{Input: env.Path("titles.csv"), JSON: env.Path("partial.json")}).Run()
	assert.True(t, errors.IsStopProcessingError(err))

	var doc output.Document
	assert.NoError(t, json.Unmarshal([]byte(env.ReadFileString("partial.json")), &doc))
	assert.Equal(t, 1, len(doc.Records))
}

func TestRunCmdConfigError(t *testing.T) {
	stubEngine(t, &fakeProcessor{ledger: reconcile.NewLedger()})
	loadConfig = func() (config.Config, error) { return config.Load(viper.GetViper()) }
	config.SetDefaults(viper.GetViper())

	err := (&RunCmd{Input: "titles.csv"}).Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "target_year")
}

func TestLookupCmdPrintsRecord(t *testing.T) {
	proc := &fakeProcessor{ledger: reconcile.NewLedger()}
	stubEngine(t, proc)

	var buf bytes.Buffer
	stdout = &buf

	cmd := &LookupCmd{Title: "Frieren", Bangumi: "https://bgm.tv/subject/400602"}
	assert.NoError(t, cmd.Run())

	var view output.RecordView
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, "Frieren", view.Title)
	assert.Equal(t, "https://bgm.tv/subject/400602", view.Platforms[0].URL)
	assert.Equal(t, "https://bgm.tv/subject/400602", proc.titles[0].Seed(model.Bangumi))
}

func TestLookupCmdRequiresTitle(t *testing.T) {
	stubEngine(t, &fakeProcessor{ledger: reconcile.NewLedger()})
	assert.Error(t, (&LookupCmd{Title: "  "}).Run())
}

func TestCacheClearCmd(t *testing.T) {
	resetCmdState(t)
	env := testutil.NewTestEnv(t)
	dbFile := env.Path("cache.db")
	viper.Set("cache.dbfile", dbFile)
	viper.Set("cache.ttl", "5m")

	store, err := cache.NewSQLiteStore(dbFile, 5*time.Minute)
	assert.NoError(t, err)
	assert.NoError(t, store.Set("GET:https://example.com::", cache.Entry{StatusCode: 200, Body: []byte("ok"), StoredAt: time.Now()}))
	assert.NoError(t, store.Close())

	// Fresh entries survive an expired-only clear.
	assert.NoError(t, (&CacheClearCmd{Expired: true}).Run())
	store, err = cache.NewSQLiteStore(dbFile, 5*time.Minute)
	assert.NoError(t, err)
	_, ok, err := store.Get("GET:https://example.com::")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, store.Close())

	assert.NoError(t, (&CacheClearCmd{}).Run())
	store, err = cache.NewSQLiteStore(dbFile, 5*time.Minute)
	assert.NoError(t, err)
	_, ok, err = store.Get("GET:https://example.com::")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, store.Close())
}

func TestCacheClearCmdWithoutDatabase(t *testing.T) {
	resetCmdState(t)
	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", env.Path("missing.db"))

	assert.NoError(t, (&CacheClearCmd{}).Run())
	assert.False(t, env.FileExists("missing.db"))
}
