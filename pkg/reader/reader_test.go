package reader

import (
	"testing"

	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsWrongType(t *testing.T) {
	r := &StubReader{}
	err := r.Init("not a split")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.KindIntegrity))
}

func TestInitRejectsEmptySplit(t *testing.T) {
	r := &StubReader{}
	err := r.Init(&model.InputSplit{})
	require.Error(t, err)
}

func TestInitAcceptsValidSplit(t *testing.T) {
	r := &StubReader{}
	split := &model.InputSplit{Response: model.DataRequestResponse{Token: "t1"}}
	require.NoError(t, r.Init(split))
	assert.False(t, r.NextKeyValue())
	assert.Equal(t, float64(1), r.Progress())
	assert.NoError(t, r.Close())
}
