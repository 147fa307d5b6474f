package policy

import (
	"context"
	"testing"

	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allowRego = `package palisade.rules.allow

import rego.v1

default result := true
`

const denyRego = `package palisade.rules.deny

import rego.v1

default result := false
`

func leafUnderA(id string) model.LeafResource {
	root := model.RootResource{RID: "/a"}
	return model.LeafResource{
		ChildResource: model.ChildResource{RID: id, ParentResource: root},
		Type:          "record",
	}
}

func TestCanAccessAppliesNegationAcrossAncestors(t *testing.T) {
	ctx := context.Background()
	gw := cache.NewMemoryGateway()
	r := New(gw, zerolog.Nop())

	_, err := r.SetTypePolicy(ctx, "record", Binding{
		ResourceRules: []RuleSpec{{Name: "vis", Message: "visibility", Rego: denyRego}},
	})
	require.NoError(t, err)

	_, err = r.SetResourcePolicy(ctx, "/a", Binding{
		ResourceRules: []RuleSpec{{Name: "ageOff(12)", Message: "age-off 12mo", Rego: allowRego}},
	})
	require.NoError(t, err)

	_, err = r.SetResourcePolicy(ctx, "/a/f", Binding{
		ResourceRules: []RuleSpec{{Name: "!vis", Negation: true, Target: "vis"}},
	})
	require.NoError(t, err)

	leaf := leafUnderA("/a/f")
	accessible, err := r.CanAccess(ctx, rules.Actor{}, []model.LeafResource{leaf})
	require.NoError(t, err)
	require.Len(t, accessible, 1)
	assert.Equal(t, "/a/f", accessible[0].ID())
}

func TestCanAccessDeniesWithoutNegation(t *testing.T) {
	ctx := context.Background()
	gw := cache.NewMemoryGateway()
	r := New(gw, zerolog.Nop())

	_, err := r.SetTypePolicy(ctx, "record", Binding{
		ResourceRules: []RuleSpec{{Name: "vis", Message: "visibility", Rego: denyRego}},
	})
	require.NoError(t, err)

	leaf := leafUnderA("/a/f")
	accessible, err := r.CanAccess(ctx, rules.Actor{}, []model.LeafResource{leaf})
	require.NoError(t, err)
	assert.Empty(t, accessible)
}

func TestCanAccessFiltersResourceWithNoPolicy(t *testing.T) {
	ctx := context.Background()
	gw := cache.NewMemoryGateway()
	r := New(gw, zerolog.Nop())

	leaf := leafUnderA("/a/f")
	accessible, err := r.CanAccess(ctx, rules.Actor{}, []model.LeafResource{leaf})
	require.NoError(t, err)
	assert.Empty(t, accessible)
}

func TestGetPolicyOmitsResourceWithoutRecordRules(t *testing.T) {
	ctx := context.Background()
	gw := cache.NewMemoryGateway()
	r := New(gw, zerolog.Nop())

	_, err := r.SetResourcePolicy(ctx, "/a", Binding{
		ResourceRules: []RuleSpec{{Name: "ageOff(12)", Rego: allowRego}},
	})
	require.NoError(t, err)

	leaf := leafUnderA("/a/f")
	policies, err := r.GetPolicy(ctx, []model.LeafResource{leaf})
	require.NoError(t, err)
	_, present := policies["/a/f"]
	assert.False(t, present)
}

func TestGetPolicyReturnsMergedRecordRules(t *testing.T) {
	ctx := context.Background()
	gw := cache.NewMemoryGateway()
	r := New(gw, zerolog.Nop())

	_, err := r.SetTypePolicy(ctx, "record", Binding{
		RecordRules: []RuleSpec{{Name: "redact-ssn", Rego: allowRego}},
	})
	require.NoError(t, err)

	leaf := leafUnderA("/a/f")
	policies, err := r.GetPolicy(ctx, []model.LeafResource{leaf})
	require.NoError(t, err)
	p, present := policies["/a/f"]
	require.True(t, present)
	require.Len(t, p.RecordRules.List, 1)
	assert.Equal(t, "redact-ssn", p.RecordRules.List[0].Name)
}
