package resource

import (
	"context"
	"testing"

	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddResourceThenGetResourcesByID(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(zerolog.Nop())

	resources := []model.ResourceAccess{
		{Resource: model.LeafResource{ChildResource: model.ChildResource{RID: "/a/f1"}, Type: "file"}, Connection: model.ConnectionDetail{Endpoint: "node1:9000"}},
		{Resource: model.LeafResource{ChildResource: model.ChildResource{RID: "/a/f2"}, Type: "file"}, Connection: model.ConnectionDetail{Endpoint: "node2:9000"}},
	}

	ok, err := p.AddResource(ctx, "dataset-a", resources)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := p.GetResourcesByID(ctx, "dataset-a")
	require.NoError(t, err)
	assert.Equal(t, resources, got)
}

func TestGetResourcesByIDNotFound(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(zerolog.Nop())

	_, err := p.GetResourcesByID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindNotFound))
}

func TestGetResourcesByIDReturnsACopy(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(zerolog.Nop())
	resources := []model.ResourceAccess{
		{Resource: model.LeafResource{ChildResource: model.ChildResource{RID: "/a/f1"}, Type: "file"}},
	}
	_, err := p.AddResource(ctx, "dataset-a", resources)
	require.NoError(t, err)

	got, err := p.GetResourcesByID(ctx, "dataset-a")
	require.NoError(t, err)
	got[0].Resource.RID = "mutated"

	got2, err := p.GetResourcesByID(ctx, "dataset-a")
	require.NoError(t, err)
	assert.Equal(t, "/a/f1", got2[0].Resource.RID)
}
