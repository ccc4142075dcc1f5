package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// AliasCatalog stores per-tenant alias tables in Redis. One hash per tenant,
// field = alias phrase, value = JSON-encoded AliasEntry. The catalog is read
// on every resolve call that names a tenant, so loads go through an
// in-process TTL cache; a ttl of zero disables caching and every Load hits
// Redis directly.
type AliasCatalog struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logging.Logger

	mu    sync.RWMutex
	cache map[string]aliasCacheEntry
}

type aliasCacheEntry struct {
	aliases map[string]AliasEntry
	expires time.Time
}

func NewAliasCatalog(rdb *redis.Client, ttl time.Duration, logger *logging.Logger) *AliasCatalog {
	if logger == nil {
		logger = logging.Default()
	}
	return &AliasCatalog{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]aliasCacheEntry),
	}
}

func aliasKey(tenantID string) string {
	return "aliases:" + tenantID
}

// Load returns the tenant's alias table. A missing tenant yields an empty
// map, not an error; resolution then runs on the built-in vocabulary alone.
// Writes through this catalog invalidate the cached entry; writes from
// other processes become visible once the TTL lapses.
func (c *AliasCatalog) Load(ctx context.Context, tenantID string) (map[string]AliasEntry, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, nil
	}
	if cached, ok := c.cached(tenantID); ok {
		return cached, nil
	}
	fields, err := c.rdb.HGetAll(ctx, aliasKey(tenantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("nlu: load aliases for %s: %w", tenantID, err)
	}
	aliases := make(map[string]AliasEntry, len(fields))
	for alias, raw := range fields {
		var entry AliasEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			c.logger.Warn("skipping malformed alias entry", "tenant_id", tenantID, "alias", alias)
			continue
		}
		aliases[alias] = entry
	}
	c.store(tenantID, aliases)
	return aliases, nil
}

// Save replaces the tenant's alias table atomically: delete then refill in
// one transaction so readers never observe a half-written table.
func (c *AliasCatalog) Save(ctx context.Context, tenantID string, aliases map[string]AliasEntry) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("nlu: alias catalog not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return fmt.Errorf("nlu: tenant id required")
	}
	key := aliasKey(tenantID)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	for alias, entry := range aliases {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("nlu: encode alias %q: %w", alias, err)
		}
		pipe.HSet(ctx, key, alias, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("nlu: save aliases for %s: %w", tenantID, err)
	}
	c.invalidate(tenantID)
	return nil
}

// Delete removes the tenant's alias table.
func (c *AliasCatalog) Delete(ctx context.Context, tenantID string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("nlu: alias catalog not configured")
	}
	if err := c.rdb.Del(ctx, aliasKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("nlu: delete aliases for %s: %w", tenantID, err)
	}
	c.invalidate(tenantID)
	return nil
}

func (c *AliasCatalog) cached(tenantID string) (map[string]AliasEntry, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[tenantID]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.aliases, true
}

func (c *AliasCatalog) store(tenantID string, aliases map[string]AliasEntry) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.cache[tenantID] = aliasCacheEntry{aliases: aliases, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *AliasCatalog) invalidate(tenantID string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	delete(c.cache, tenantID)
	c.mu.Unlock()
}
