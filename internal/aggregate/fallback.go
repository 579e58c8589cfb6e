package aggregate

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/source"
	"github.com/lepinkainen/ratingsync/internal/textutil"
)

// peerOrder lists, per platform, whose resolved name to borrow for a retry.
// AniList and MyAnimeList both carry the native title, so they try each
// other first.
var peerOrder = map[model.Platform][]model.Platform{
	model.MyAnimeList: {model.AniList, model.Bangumi, model.Filmarks},
	model.AniList:     {model.MyAnimeList, model.Bangumi, model.Filmarks},
	model.Bangumi:     {model.AniList, model.MyAnimeList, model.Filmarks},
	model.Filmarks:    {model.AniList, model.MyAnimeList, model.Bangumi},
}

type fallbackState int

const (
	stateResolved fallbackState = iota
	stateFailedOnce
	stateFallbackAttempted
)

// Fallback records the single name-based retry made for a platform.
type Fallback struct {
	Peer     model.Platform
	Key      string
	Resolved bool
}

type plan struct {
	extractor source.Extractor
	fallback  Fallback
}

// fallback retries each eligible failure once, concurrently, using names
// resolved in the primary pass. Fallback results never feed other
// fallbacks.
func (a *Aggregator) fallback(ctx context.Context, title model.Title, primary map[model.Platform]model.Result) Outcome {
	out := Outcome{
		Results:   primary,
		Fallbacks: make(map[model.Platform]Fallback),
	}
	if ctx.Err() != nil {
		return out
	}

	states := make(map[model.Platform]fallbackState, len(primary))
	plans := make(map[model.Platform]plan)
	var retry []source.Extractor

	for _, e := range a.extractors {
		p := e.Platform()
		res := primary[p]
		if res.IsResolved() {
			states[p] = stateResolved
			continue
		}
		states[p] = stateFailedOnce
		if !res.Status.FallbackEligible() {
			continue
		}

		peer, key, ok := peerName(p, primary)
		if !ok {
			slog.Debug("No peer name available for fallback", "platform", p, "title", title.Original)
			continue
		}
		plans[p] = plan{extractor: e, fallback: Fallback{Peer: peer, Key: key}}
		retry = append(retry, e)
	}

	if len(retry) == 0 {
		return out
	}

	retried := a.fanOut(ctx, retry, func(ctx context.Context, e source.Extractor) model.Result {
		pl := plans[e.Platform()]
		slog.Info("Retrying with peer name",
			"platform", e.Platform(),
			"peer", pl.fallback.Peer,
			"key", pl.fallback.Key,
			"title", title.Original)
		return e.ExtractByName(ctx, title, pl.fallback.Key)
	})

	for p, res := range retried {
		if states[p] != stateFailedOnce {
			continue
		}
		states[p] = stateFallbackAttempted

		fb := plans[p].fallback
		if res.IsResolved() {
			res.Attempt = model.AttemptFallback
			out.Results[p] = res
			fb.Resolved = true
		} else {
			slog.Info("Fallback did not resolve, keeping primary outcome",
				"platform", p,
				"status", out.Results[p].Status.String(),
				"fallback_status", res.Status.String())
		}
		out.Fallbacks[p] = fb
	}
	return out
}

// peerName picks the first resolved peer in preference order and derives a
// search key from its name.
func peerName(p model.Platform, results map[model.Platform]model.Result) (model.Platform, string, bool) {
	for _, peer := range peerOrder[p] {
		res, ok := results[peer]
		if !ok || !res.IsResolved() {
			continue
		}
		key := textutil.SearchKey(textutil.UnescapeName(res.Name))
		if key == "" {
			continue
		}
		return peer, key, true
	}
	return "", "", false
}
