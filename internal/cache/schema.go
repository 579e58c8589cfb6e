package cache

// RequestCacheSchema is the table backing SQLiteStore.
const RequestCacheSchema = `
CREATE TABLE IF NOT EXISTS request_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	status_code INTEGER NOT NULL,
	header TEXT NOT NULL,
	body BLOB NOT NULL,
	cached_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_cache_cached_at ON request_cache(cached_at);
`
