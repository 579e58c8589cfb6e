// Package config turns viper settings into an immutable run configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RATINGSYNC_CACHE_TTL.
const EnvPrefix = "RATINGSYNC"

// Config holds everything a run needs. Nothing in the core reads viper
// directly.
type Config struct {
	Window     model.YearWindow
	Input      string
	Output     Output
	Cache      Cache
	Fetch      Fetch
	RateLimits map[model.Platform]float64
	Workers    int
	Candidates int
	Pause      time.Duration
}

// Output names the optional result files.
type Output struct {
	JSON      string
	YAML      string
	SQLite    string
	Overwrite bool
}

// Cache configures response memoization.
type Cache struct {
	Persist bool
	DBFile  string
	TTL     time.Duration
}

// Fetch configures the HTTP layer.
type Fetch struct {
	Attempts  int
	Timeout   time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Proxy     string
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("output.json", "")
	v.SetDefault("output.yaml", "")
	v.SetDefault("output.sqlite", "")
	v.SetDefault("output.overwrite", true)

	v.SetDefault("cache.persist", false)
	v.SetDefault("cache.dbfile", "./cache.db")
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("fetch.attempts", 3)
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.base_delay", "5s")
	v.SetDefault("fetch.max_delay", "60s")
	v.SetDefault("proxy", "")

	v.SetDefault("ratelimit.bangumi", 4.0)
	v.SetDefault("ratelimit.anilist", 1.0)
	v.SetDefault("ratelimit.myanimelist", 1.0)
	v.SetDefault("ratelimit.filmarks", 1.0)

	v.SetDefault("workers", 4)
	v.SetDefault("candidates", 5)
	v.SetDefault("pause", "100ms")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Errors only occur when no key is given.
	_ = v.BindEnv("target_year", EnvPrefix+"_TARGET_YEAR", "TARGET_YEAR")
}

// Load builds a Config from v. A missing or malformed target year is an
// error so a run can abort before any title is processed.
func Load(v *viper.Viper) (Config, error) {
	window, err := model.NewYearWindow(strings.TrimSpace(v.GetString("target_year")))
	if err != nil {
		return Config{}, fmt.Errorf("target_year: %w", err)
	}

	cfg := Config{
		Window: window,
		Input:  v.GetString("input"),
		Output: Output{
			JSON:      v.GetString("output.json"),
			YAML:      v.GetString("output.yaml"),
			SQLite:    v.GetString("output.sqlite"),
			Overwrite: v.GetBool("output.overwrite"),
		},
		Cache: Cache{
			Persist: v.GetBool("cache.persist"),
			DBFile:  v.GetString("cache.dbfile"),
		},
		Fetch: Fetch{
			Attempts: v.GetInt("fetch.attempts"),
			Proxy:    v.GetString("proxy"),
		},
		RateLimits: make(map[model.Platform]float64),
		Workers:    v.GetInt("workers"),
		Candidates: v.GetInt("candidates"),
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"cache.ttl", &cfg.Cache.TTL},
		{"fetch.timeout", &cfg.Fetch.Timeout},
		{"fetch.base_delay", &cfg.Fetch.BaseDelay},
		{"fetch.max_delay", &cfg.Fetch.MaxDelay},
		{"pause", &cfg.Pause},
	}
	for _, d := range durations {
		if *d.target, err = duration(v, d.key); err != nil {
			return Config{}, err
		}
	}

	for _, p := range model.Platforms() {
		rps := v.GetFloat64("ratelimit." + string(p))
		if rps < 0 {
			return Config{}, fmt.Errorf("ratelimit.%s: must not be negative", p)
		}
		cfg.RateLimits[p] = rps
	}

	if cfg.Fetch.Attempts < 1 {
		return Config{}, fmt.Errorf("fetch.attempts: must be at least 1, got %d", cfg.Fetch.Attempts)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers: must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Candidates < 1 {
		return Config{}, fmt.Errorf("candidates: must be at least 1, got %d", cfg.Candidates)
	}

	return cfg, nil
}

// RateLimitKeys returns the per-platform rates keyed for a limiter registry.
func (c Config) RateLimitKeys() map[string]float64 {
	out := make(map[string]float64, len(c.RateLimits))
	for p, rps := range c.RateLimits {
		out[string(p)] = rps
	}
	return out
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}
