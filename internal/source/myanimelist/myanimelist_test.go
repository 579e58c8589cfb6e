package myanimelist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<table border="0" cellpadding="0" cellspacing="0" width="100%">
<tr><td>Title</td><td>Type</td></tr>
<tr><td><div class="picSurround"><a class="hoverinfo_trigger" href="/anime/1/Old_Show"><img></a></div>
    <td><a href="/anime/1/Old_Show"><strong>Old Show</strong></a></td></tr>
<tr><td><div class="picSurround"><a class="hoverinfo_trigger" href="/anime/2/New_Show"><img></a></div>
    <td><a href="/anime/2/New_Show"><strong>New Show</strong></a></td></tr>
</table></body></html>`

func animePage(japanese, aired, score, votes string) string {
	return fmt.Sprintf(`<html><body>
<h1 class="title-name h1_bold_none"><strong>English Title</strong></h1>
<div class="spaceit_pad"><span class="dark_text">Japanese:</span> %s</div>
<div class="spaceit_pad"><span class="dark_text">Aired:</span>
  %s
</div>
<div class="fl-l score"><span itemprop="ratingValue" class="score-label score-8">%s</span></div>
<span itemprop="ratingCount" style="display: none">%s</span>
</body></html>`, japanese, aired, score, votes)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /anime.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anime", r.URL.Query().Get("cat"))
		if r.URL.Query().Get("q") == "nothing" {
			_, _ = io.WriteString(w, `<html><body><table border="0" cellpadding="0" cellspacing="0" width="100%"><tr><td>Title</td></tr></table></body></html>`)
			return
		}
		_, _ = io.WriteString(w, searchPage)
	})
	mux.HandleFunc("GET /anime/1/Old_Show", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, animePage("古い番組", "Apr 3, 2012 to Sep 25, 2012", "7.10", "1,234"))
	})
	mux.HandleFunc("GET /anime/2/New_Show", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, animePage("新しい番組 &amp; 続き", "Jan 10, 2025 to ?", "8.45", "56789"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseID(t *testing.T) {
	r := New(nil)

	id, ok := r.ParseID("https://myanimelist.net/anime/52991/Sousou_no_Frieren")
	require.True(t, ok)
	assert.Equal(t, "https://myanimelist.net/anime/52991", id)

	_, ok = r.ParseID("https://myanimelist.net/manga/1")
	assert.False(t, ok)
}

func TestExtractSearchesAndValidatesYear(t *testing.T) {
	srv := newServer(t)
	ex := source.NewDriver(New(fetch.New(), WithBaseURL(srv.URL)), model.WindowFor(2025))

	res := ex.Extract(context.Background(), model.NewTitle("Show", nil))
	require.True(t, res.IsResolved(), "error: %v", res.Err)
	assert.Equal(t, srv.URL+"/anime/2/New_Show", res.URL)
	assert.Equal(t, "新しい番組 & 続き", res.Name)
	assert.Equal(t, model.Period("202501"), res.Period)
	assert.Equal(t, "8.45", res.ScoreText())
	assert.Equal(t, "56789", res.VotesText())
}

func TestExtractNotFound(t *testing.T) {
	srv := newServer(t)
	ex := source.NewDriver(New(fetch.New(), WithBaseURL(srv.URL)), model.WindowFor(2025))

	res := ex.Extract(context.Background(), model.NewTitle("nothing", nil))
	assert.Equal(t, model.StatusNotFound, res.Status)
}

func TestExtractAmbiguous(t *testing.T) {
	srv := newServer(t)
	ex := source.NewDriver(New(fetch.New(), WithBaseURL(srv.URL)), model.WindowFor(2020))

	res := ex.Extract(context.Background(), model.NewTitle("Show", nil))
	assert.Equal(t, model.StatusAmbiguousExhausted, res.Status)
}

func TestByIDSkipsYearValidation(t *testing.T) {
	srv := newServer(t)
	r := New(fetch.New(), WithBaseURL(srv.URL))

	res, err := r.ByID(context.Background(), srv.URL+"/anime/1/Old_Show")
	require.NoError(t, err)
	assert.Equal(t, "古い番組", res.Name)
	assert.Equal(t, model.Period("201204"), res.Period)
	assert.Equal(t, "1234", res.VotesText())
}

func TestParsePageFallsBackToTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><h1 class="title-name"><strong>Only English</strong></h1>
<div><span class="dark_text">Aired:</span> Not available</div>
<span itemprop="ratingValue">N/A</span></html>`)
	}))
	defer srv.Close()

	res, err := New(fetch.New()).ByID(context.Background(), srv.URL+"/anime/9")
	require.NoError(t, err)
	assert.Equal(t, "Only English", res.Name)
	assert.Nil(t, res.Score)
	assert.True(t, res.Period.IsZero())
}

func TestParsePageWithoutAnyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body>blocked</body></html>`)
	}))
	defer srv.Close()

	_, err := New(fetch.New()).ByID(context.Background(), srv.URL+"/anime/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrIncomplete)
}

func TestParseAired(t *testing.T) {
	tests := []struct {
		aired      string
		wantPeriod model.Period
		wantYear   int
	}{
		{aired: "Jan 10, 2025 to ?", wantPeriod: "202501", wantYear: 2025},
		{aired: "Oct 22, 2023 to Mar 24, 2024", wantPeriod: "202310", wantYear: 2023},
		{aired: "Apr, 2025", wantPeriod: "202504", wantYear: 2025},
		{aired: "2026 to ?", wantPeriod: "", wantYear: 2026},
		{aired: "Foo 1, 2025", wantPeriod: "", wantYear: 2025},
		{aired: "Not available", wantPeriod: "", wantYear: 0},
		{aired: "", wantPeriod: "", wantYear: 0},
	}

	for _, tt := range tests {
		t.Run(tt.aired, func(t *testing.T) {
			period, year := parseAired(tt.aired)
			assert.Equal(t, tt.wantPeriod, period)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}
