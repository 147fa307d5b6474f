package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGatewayAddGet(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	ok, err := g.Add(ctx, "policy", "dataTypePolicy.record", []string{"vis"}, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	var got []string
	found, err := g.Get(ctx, "policy", "dataTypePolicy.record", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"vis"}, got)
}

func TestMemoryGatewayGetMissing(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	var got string
	found, err := g.Get(ctx, "policy", "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryGatewayExpiry(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	_, err := g.Add(ctx, "tokens", "tkn-1", "redeemed", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	var got string
	found, err := g.Get(ctx, "tokens", "tkn-1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryGatewayListByPrefix(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	_, _ = g.Add(ctx, "policy", "resourcePolicy./a", []string{}, 0)
	_, _ = g.Add(ctx, "policy", "resourcePolicy./a/f", []string{}, 0)
	_, _ = g.Add(ctx, "policy", "dataTypePolicy.record", []string{}, 0)

	keys, err := g.List(ctx, "policy", "resourcePolicy.")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"resourcePolicy./a", "resourcePolicy./a/f"}, keys)
}

func TestMemoryGatewayNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	_, _ = g.Add(ctx, "serviceA", "k", "a", 0)
	_, _ = g.Add(ctx, "serviceB", "k", "b", 0)

	var got string
	found, err := g.Get(ctx, "serviceA", "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a", got)
}
