package resolver

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName     = "cadence"
	cacheDBName = "metadata.db"
)

// Cache wraps a Resolver with a SQLite-backed id->metadata cache.
//
// Hydrating the same collection twice should not re-fetch every item, so
// hits are served locally until they expire. Failures are never cached.
type Cache struct {
	db      *sql.DB
	inner   Resolver
	ttl     time.Duration
	nowFunc func() time.Time
}

// OpenCache opens (or creates) the cache database under the XDG cache dir
// and wraps inner with it.
func OpenCache(inner Resolver, ttl time.Duration) (*Cache, error) {
	dbPath := filepath.Join(xdg.CacheHome, appName, cacheDBName)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newCache(db, inner, ttl)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func newCache(db *sql.DB, inner Resolver, ttl time.Duration) (*Cache, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			item_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			author_name TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, err
	}
	return &Cache{
		db:      db,
		inner:   inner,
		ttl:     ttl,
		nowFunc: time.Now,
	}, nil
}

// Resolve returns cached metadata when fresh, otherwise delegates to the
// inner resolver and stores the result.
func (c *Cache) Resolve(ctx context.Context, itemID string) (Metadata, error) {
	if meta, ok := c.get(itemID); ok {
		return meta, nil
	}

	meta, err := c.inner.Resolve(ctx, itemID)
	if err != nil {
		return Metadata{}, err
	}
	c.put(itemID, meta)
	return meta, nil
}

func (c *Cache) get(itemID string) (Metadata, bool) {
	var meta Metadata
	var fetchedAt int64
	err := c.db.QueryRow(`
		SELECT title, author_name, thumbnail_url, fetched_at
		FROM metadata WHERE item_id = ?
	`, itemID).Scan(&meta.Title, &meta.AuthorName, &meta.ThumbnailURL, &fetchedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			// Corrupt or unreadable cache entries behave like misses.
			return Metadata{}, false
		}
		return Metadata{}, false
	}
	if c.nowFunc().Unix()-fetchedAt > int64(c.ttl.Seconds()) {
		return Metadata{}, false
	}
	return meta, true
}

func (c *Cache) put(itemID string, meta Metadata) {
	// A write failure only costs a future cache miss.
	_, _ = c.db.Exec(`
		INSERT INTO metadata (item_id, title, author_name, thumbnail_url, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			title = excluded.title,
			author_name = excluded.author_name,
			thumbnail_url = excluded.thumbnail_url,
			fetched_at = excluded.fetched_at
	`, itemID, meta.Title, meta.AuthorName, meta.ThumbnailURL, c.nowFunc().Unix())
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Verify Cache implements Resolver at compile time.
var _ Resolver = (*Cache)(nil)
