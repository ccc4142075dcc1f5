package nlu

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*AliasCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewAliasCatalog(client, 0, nil), mr
}

func TestAliasCatalogRoundTrip(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	aliases := map[string]AliasEntry{
		"mens cut":   {CanonicalFamily: "haircut", Priority: 10},
		"womens cut": {CanonicalFamily: "haircut", Priority: 10},
		"glow up":    {CanonicalFamily: "facial", Priority: 5},
	}
	require.NoError(t, catalog.Save(ctx, "tenant-a", aliases))

	loaded, err := catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, aliases, loaded)
}

func TestAliasCatalogSaveReplacesTable(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.Save(ctx, "tenant-a", map[string]AliasEntry{
		"old alias": {CanonicalFamily: "haircut", Priority: 1},
	}))
	require.NoError(t, catalog.Save(ctx, "tenant-a", map[string]AliasEntry{
		"new alias": {CanonicalFamily: "massage", Priority: 2},
	}))

	loaded, err := catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "massage", loaded["new alias"].CanonicalFamily)
}

func TestAliasCatalogMissingTenant(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	loaded, err := catalog.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestAliasCatalogSkipsMalformedEntries(t *testing.T) {
	catalog, mr := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.Save(ctx, "tenant-a", map[string]AliasEntry{
		"mens cut": {CanonicalFamily: "haircut", Priority: 10},
	}))
	mr.HSet("aliases:tenant-a", "broken", "{not json")

	loaded, err := catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Contains(t, loaded, "mens cut")
}

func TestAliasCatalogDelete(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.Save(ctx, "tenant-a", map[string]AliasEntry{
		"mens cut": {CanonicalFamily: "haircut", Priority: 10},
	}))
	require.NoError(t, catalog.Delete(ctx, "tenant-a"))

	loaded, err := catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestAliasCatalogCachesLoads(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	catalog := NewAliasCatalog(client, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, catalog.Save(ctx, "tenant-a", map[string]AliasEntry{
		"mens cut": {CanonicalFamily: "haircut", Priority: 10},
	}))

	loaded, err := catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	// A write behind the catalog's back stays invisible within the TTL.
	mr.HSet("aliases:tenant-a", "glow up", `{"canonical_family":"facial","priority":5}`)
	loaded, err = catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "cached table served within the TTL")

	// Writes through the catalog invalidate the cached entry.
	require.NoError(t, catalog.Save(ctx, "tenant-a", map[string]AliasEntry{
		"new alias": {CanonicalFamily: "massage", Priority: 2},
	}))
	loaded, err = catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Contains(t, loaded, "new alias")

	require.NoError(t, catalog.Delete(ctx, "tenant-a"))
	loaded, err = catalog.Load(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestAliasCatalogNilClient(t *testing.T) {
	catalog := NewAliasCatalog(nil, 0, nil)

	loaded, err := catalog.Load(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.Error(t, catalog.Save(context.Background(), "tenant-a", nil))
}
