package config

import (
	"testing"

	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reqNamed(name string) model.RegisterDataRequest {
	return model.RegisterDataRequest{ResourceName: name, UserID: "u1", Context: model.Context{Justification: "x"}}
}

func TestGetDataRequestsEmptyConfigYieldsEmptyList(t *testing.T) {
	c := NewJobConfig()
	requests, err := c.GetDataRequests()
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestAddDataRequestRoundTripsInOrder(t *testing.T) {
	c := NewJobConfig()
	want := []model.RegisterDataRequest{reqNamed("r1"), reqNamed("r2"), reqNamed("r3")}

	for _, r := range want {
		require.NoError(t, c.AddDataRequest(r))
	}

	got, err := c.GetDataRequests()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMaxParallelismHintRoundTrip(t *testing.T) {
	c := NewJobConfig()
	require.NoError(t, c.SetMaxParallelismHint(4))

	h, err := c.GetMaxParallelismHint()
	require.NoError(t, err)
	assert.Equal(t, 4, h)
}

func TestMaxParallelismHintDefaultsToZero(t *testing.T) {
	c := NewJobConfig()
	h, err := c.GetMaxParallelismHint()
	require.NoError(t, err)
	assert.Equal(t, 0, h)
}

func TestSetMaxParallelismHintRejectsNegative(t *testing.T) {
	c := NewJobConfig()
	err := c.SetMaxParallelismHint(-1)
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindInvalidArgument))

	h, err := c.GetMaxParallelismHint()
	require.NoError(t, err)
	assert.Equal(t, 0, h)
}

func TestSerialiserRoundTrip(t *testing.T) {
	c := NewJobConfig()
	type descriptor struct {
		Format string `json:"format"`
	}

	require.NoError(t, c.SetSerialiser(descriptor{Format: "avro"}))

	var got descriptor
	found, err := c.GetSerialiser(&got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "avro", got.Format)
}

func TestGetSerialiserNotFoundOnFreshConfig(t *testing.T) {
	c := NewJobConfig()
	var got map[string]string
	found, err := c.GetSerialiser(&got)
	require.NoError(t, err)
	assert.False(t, found)
}
