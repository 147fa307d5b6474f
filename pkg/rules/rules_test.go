package rules

import (
	"context"
	"testing"

	"github.com/palisade/palisade/pkg/model"
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

func leaf(id string) model.LeafResource {
	return model.LeafResource{ChildResource: model.ChildResource{RID: id}, Type: "file"}
}

func TestMergeMonotonicity(t *testing.T) {
	ctx := context.Background()
	ageOff, err := NewRule[model.LeafResource](ctx, "ageOff", "age-off applied", allowRego)
	require.NoError(t, err)

	ancestor := Rules[model.LeafResource]{Message: NoRulesSet, List: []Rule[model.LeafResource]{ageOff}}
	descendant := Empty[model.LeafResource]()

	merged, present := Chain([]Rules[model.LeafResource]{ancestor, descendant})
	require.True(t, present)
	require.Len(t, merged.List, 1)
	assert.Equal(t, "ageOff", merged.List[0].Name)
}

func TestNegationRemovesAncestorRule(t *testing.T) {
	ctx := context.Background()
	vis, err := NewRule[model.LeafResource](ctx, "vis", "visibility check", allowRego)
	require.NoError(t, err)
	ageOff, err := NewRule[model.LeafResource](ctx, "ageOff", "age-off applied", allowRego)
	require.NoError(t, err)

	typePolicy := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{vis}}
	ancestorPolicy := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{ageOff}}
	leafPolicy := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{NewNegation[model.LeafResource]("!vis", "vis")}}

	merged, present := Chain([]Rules[model.LeafResource]{typePolicy, ancestorPolicy, leafPolicy})
	require.True(t, present)

	names := make([]string, 0, len(merged.List))
	for _, r := range merged.List {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"ageOff"}, names)
}

func TestMessageCombination(t *testing.T) {
	tests := []struct {
		name     string
		acc      string
		next     string
		expected string
	}{
		{"both non-sentinel", "a", "b", "a, b"},
		{"acc sentinel", NoRulesSet, "b", "b"},
		{"next sentinel", "a", NoRulesSet, "a"},
		{"both sentinel", NoRulesSet, NoRulesSet, NoRulesSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := combineMessage(tt.acc, tt.next)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApplyChainDropsOnDenyingRule(t *testing.T) {
	ctx := context.Background()
	deny, err := NewRule[model.LeafResource](ctx, "blocked", "blocked by policy", denyRego)
	require.NoError(t, err)

	rs := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{deny}}
	_, keep, err := ApplyChain(ctx, rs, leaf("f1"), Actor{})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestApplyChainKeepsWhenAllRulesAllow(t *testing.T) {
	ctx := context.Background()
	allow, err := NewRule[model.LeafResource](ctx, "vis", "visibility check", allowRego)
	require.NoError(t, err)

	rs := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{allow}}
	subject := leaf("f1")
	result, keep, err := ApplyChain(ctx, rs, subject, Actor{})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, subject.ID(), result.ID())
}

func TestEndToEndMergeExample(t *testing.T) {
	// data-type T has [vis], ancestor /a has [ageOff(12)], resource /a/f negates vis.
	ctx := context.Background()
	vis, err := NewRule[model.LeafResource](ctx, "vis", "visibility", allowRego)
	require.NoError(t, err)
	ageOff, err := NewRule[model.LeafResource](ctx, "ageOff(12)", "age-off 12mo", allowRego)
	require.NoError(t, err)

	typePolicy := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{vis}}
	ancestorPolicy := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{ageOff}}
	leafPolicy := Rules[model.LeafResource]{List: []Rule[model.LeafResource]{NewNegation[model.LeafResource]("!vis", "vis")}}

	merged, present := Chain([]Rules[model.LeafResource]{typePolicy, ancestorPolicy, leafPolicy})
	require.True(t, present)
	require.Len(t, merged.List, 1)
	assert.Equal(t, "ageOff(12)", merged.List[0].Name)
}
