package directory

import (
	"context"
	"testing"

	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUserThenGetUser(t *testing.T) {
	ctx := context.Background()
	d := New(cache.NewMemoryGateway(), zerolog.Nop())

	user := model.User{ID: "u1", Auths: []string{"secret"}, Roles: []string{"analyst"}}
	ok, err := d.AddUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := d.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestGetUserNotFound(t *testing.T) {
	ctx := context.Background()
	d := New(cache.NewMemoryGateway(), zerolog.Nop())

	_, err := d.GetUser(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindNotFound))
}

func TestAddUserRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	d := New(cache.NewMemoryGateway(), zerolog.Nop())

	_, err := d.AddUser(ctx, model.User{})
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindInvalidArgument))
}
