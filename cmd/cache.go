package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/lepinkainen/ratingsync/internal/cache"
	"github.com/lepinkainen/ratingsync/internal/fileutil"
)

// CacheCmd groups the cache maintenance commands
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove cached responses"`
}

// CacheClearCmd represents the cache clear command
type CacheClearCmd struct {
	Expired bool `help:"Only remove entries older than the cache TTL"`
}

func (c *CacheClearCmd) Run() error {
	dbFile := viper.GetString("cache.dbfile")
	if !fileutil.FileExists(dbFile) {
		slog.Info("No cache database found", "path", dbFile)
		return nil
	}

	ttl := viper.GetDuration("cache.ttl")
	store, err := cache.NewSQLiteStore(dbFile, ttl)
	if err != nil {
		return fmt.Errorf("open cache %s: %w", dbFile, err)
	}
	defer func() { _ = store.Close() }()

	var removed int64
	if c.Expired {
		removed, err = store.ClearExpired()
	} else {
		removed, err = store.Clear()
	}
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	slog.Info("Cache cleared", "path", dbFile, "removed", removed, "expired_only", c.Expired)
	return nil
}
