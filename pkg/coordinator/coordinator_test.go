package coordinator

import (
	"context"
	"testing"

	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/palisade/palisade/pkg/policy"
	"github.com/palisade/palisade/pkg/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	user model.User
	err  error
}

func (f fakeUsers) GetUser(context.Context, model.UserID) (model.User, error) {
	return f.user, f.err
}

type fakeResources struct {
	access []model.ResourceAccess
	err    error
}

func (f fakeResources) GetResourcesByID(context.Context, string) ([]model.ResourceAccess, error) {
	return f.access, f.err
}

type fakePolicy struct {
	accessible []model.LeafResource
	policyMap  map[string]policy.Policy
	canErr     error
	getErr     error
}

func (f fakePolicy) CanAccess(context.Context, rules.Actor, []model.LeafResource) ([]model.LeafResource, error) {
	return f.accessible, f.canErr
}

func (f fakePolicy) GetPolicy(context.Context, []model.LeafResource) (map[string]policy.Policy, error) {
	return f.policyMap, f.getErr
}

func leaf(id string) model.LeafResource {
	return model.LeafResource{ChildResource: model.ChildResource{RID: id}, Type: "file"}
}

func TestRegisterDataRequestRejectsNullRequest(t *testing.T) {
	c := New(fakeUsers{}, fakeResources{}, fakePolicy{}, cache.NewMemoryGateway(), 0, zerolog.Nop(), nil)
	_, err := c.RegisterDataRequest(context.Background(), model.RegisterDataRequest{})
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindInvalidArgument))
}

func TestRegisterDataRequestFiltersAndMintsToken(t *testing.T) {
	access := []model.ResourceAccess{
		{Resource: leaf("/a/f1"), Connection: model.ConnectionDetail{Endpoint: "node1"}},
		{Resource: leaf("/a/f2"), Connection: model.ConnectionDetail{Endpoint: "node2"}},
	}
	p := fakePolicy{
		accessible: []model.LeafResource{leaf("/a/f1")},
		policyMap:  map[string]policy.Policy{"/a/f1": {}},
	}
	c := New(fakeUsers{user: model.User{ID: "u1"}}, fakeResources{access: access}, p, cache.NewMemoryGateway(), 0, zerolog.Nop(), nil)

	resp, err := c.RegisterDataRequest(context.Background(), model.RegisterDataRequest{
		ResourceName: "dataset-a",
		UserID:       "u1",
		Context:      model.Context{Justification: "investigation"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.Len(t, resp.Resources, 1)
	assert.Equal(t, "/a/f1", resp.Resources[0].Resource.ID())
	assert.Equal(t, "node1", resp.Resources[0].Connection.Endpoint)
}

func TestRegisterDataRequestPropagatesUserLookupFailure(t *testing.T) {
	c := New(
		fakeUsers{err: perrors.NewNotFound("no such user", nil).WithCode(perrors.CodeNoSuchUser)},
		fakeResources{},
		fakePolicy{},
		cache.NewMemoryGateway(), 0, zerolog.Nop(), nil,
	)
	_, err := c.RegisterDataRequest(context.Background(), model.RegisterDataRequest{
		ResourceName: "dataset-a",
		UserID:       "ghost",
		Context:      model.Context{Justification: "x"},
	})
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindNotFound))
}

func TestGetPolicyReadsStoredMap(t *testing.T) {
	access := []model.ResourceAccess{{Resource: leaf("/a/f1"), Connection: model.ConnectionDetail{Endpoint: "node1"}}}
	p := fakePolicy{
		accessible: []model.LeafResource{leaf("/a/f1")},
		policyMap:  map[string]policy.Policy{"/a/f1": {}},
	}
	c := New(fakeUsers{user: model.User{ID: "u1"}}, fakeResources{access: access}, p, cache.NewMemoryGateway(), 0, zerolog.Nop(), nil)

	resp, err := c.RegisterDataRequest(context.Background(), model.RegisterDataRequest{
		ResourceName: "dataset-a",
		UserID:       "u1",
		Context:      model.Context{Justification: "x"},
	})
	require.NoError(t, err)

	stored, err := c.GetPolicy(context.Background(), resp.Token)
	require.NoError(t, err)
	_, present := stored["/a/f1"]
	assert.True(t, present)
}

func TestGetPolicyNotFoundForUnknownToken(t *testing.T) {
	c := New(fakeUsers{}, fakeResources{}, fakePolicy{}, cache.NewMemoryGateway(), 0, zerolog.Nop(), nil)
	_, err := c.GetPolicy(context.Background(), "unknown-token")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindNotFound))
}
