package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestGateway(t *testing.T) *SQLiteGateway {
	t.Helper()

	g, err := NewSQLiteGateway(Config{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, g.Init(ctx))
	require.NoError(t, g.Migrate(ctx))

	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestSQLiteGatewayLifecycle(t *testing.T) {
	g, err := NewSQLiteGateway(Config{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, g.Init(ctx))
	require.NoError(t, g.Migrate(ctx))
	require.NoError(t, g.Close())
}

func TestSQLiteGatewayRequiresPath(t *testing.T) {
	_, err := NewSQLiteGateway(Config{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSQLiteGatewayAddGet(t *testing.T) {
	g := setupTestGateway(t)
	ctx := context.Background()

	ok, err := g.Add(ctx, "policy", "dataTypePolicy.record", []string{"vis"}, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	var got []string
	found, err := g.Get(ctx, "policy", "dataTypePolicy.record", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"vis"}, got)
}

func TestSQLiteGatewayUpsertOverwrites(t *testing.T) {
	g := setupTestGateway(t)
	ctx := context.Background()

	_, err := g.Add(ctx, "directory", "alice", "v1", 0)
	require.NoError(t, err)
	_, err = g.Add(ctx, "directory", "alice", "v2", 0)
	require.NoError(t, err)

	var got string
	found, err := g.Get(ctx, "directory", "alice", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", got)
}

func TestSQLiteGatewayGetMissing(t *testing.T) {
	g := setupTestGateway(t)
	ctx := context.Background()

	var got string
	found, err := g.Get(ctx, "policy", "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteGatewayExpiry(t *testing.T) {
	g := setupTestGateway(t)
	ctx := context.Background()

	_, err := g.Add(ctx, "tokens", "tkn-1", "redeemed", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	var got string
	found, err := g.Get(ctx, "tokens", "tkn-1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteGatewayListByPrefix(t *testing.T) {
	g := setupTestGateway(t)
	ctx := context.Background()

	_, _ = g.Add(ctx, "policy", "resourcePolicy./a", []string{}, 0)
	_, _ = g.Add(ctx, "policy", "resourcePolicy./a/f", []string{}, 0)
	_, _ = g.Add(ctx, "policy", "dataTypePolicy.record", []string{}, 0)

	keys, err := g.List(ctx, "policy", "resourcePolicy.")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"resourcePolicy./a", "resourcePolicy./a/f"}, keys)
}

func TestSQLiteGatewayNamespaceIsolation(t *testing.T) {
	g := setupTestGateway(t)
	ctx := context.Background()

	_, _ = g.Add(ctx, "serviceA", "k", "a", 0)
	_, _ = g.Add(ctx, "serviceB", "k", "b", 0)

	var got string
	found, err := g.Get(ctx, "serviceA", "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a", got)
}
