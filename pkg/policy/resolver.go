// Package policy implements the Policy Resolver: the hierarchical merge
// of resource-type and ancestor-chain rule bindings
// into a single accessible/merged rule chain per leaf resource.
package policy

import (
	"context"
	"sync"

	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/palisade/palisade/pkg/rules"
	"github.com/palisade/palisade/pkg/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// serviceNamespace is the Gateway namespace policy bindings live under.
const serviceNamespace = "policy"

func resourceKey(id string) string { return "resourcePolicy." + id }
func typeKey(t string) string      { return "dataTypePolicy." + t }

// Resolver implements CanAccess, GetPolicy and the binding setters,
// compiling each fetched Binding's RuleSpecs into rules.Rule chains and
// memoising the compiled chains in two maps (resource rules and record
// rules) keyed by binding key.
type Resolver struct {
	gateway cache.Gateway
	logger  zerolog.Logger

	mu               sync.RWMutex
	compiledResource map[string]rules.Rules[model.LeafResource]
	compiledRecord   map[string]rules.Rules[model.Record]
}

// New returns a Resolver backed by gateway.
func New(gateway cache.Gateway, logger zerolog.Logger) *Resolver {
	return &Resolver{
		gateway:          gateway,
		logger:           logger.With().Str("component", "policy-resolver").Logger(),
		compiledResource: make(map[string]rules.Rules[model.LeafResource]),
		compiledRecord:   make(map[string]rules.Rules[model.Record]),
	}
}

// chainKeys returns the ordered binding keys for leaf: the data-type
// policy first, then one resourcePolicy key per ancestor from the
// farthest down to leaf itself.
func chainKeys(leaf model.LeafResource) []string {
	chain := model.AncestorChain(leaf)
	keys := make([]string, 0, len(chain)+1)
	keys = append(keys, typeKey(leaf.Type))
	for _, r := range chain {
		keys = append(keys, resourceKey(r.ID()))
	}
	return keys
}

// fetchBindings fetches binding at each of keys concurrently, preserving
// keys' order in the returned slice; a missing key yields a nil entry.
func (r *Resolver) fetchBindings(ctx context.Context, keys []string) ([]*Binding, error) {
	bindings := make([]*Binding, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			var b Binding
			found, err := r.gateway.Get(gctx, serviceNamespace, key, &b)
			if err != nil {
				return perrors.NewUnavailable("failed to read policy binding", err).
					WithCode(perrors.CodeCacheUnavailable).WithResource(key).WithOperation("fetchBindings")
			}
			if found {
				bindings[i] = &b
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bindings, nil
}

func compileSpecs[T any](ctx context.Context, key, message string, specs []RuleSpec) (rules.Rules[T], error) {
	out := rules.Rules[T]{Message: message}
	if message == "" {
		out.Message = rules.NoRulesSet
	}
	for _, spec := range specs {
		if spec.Negation {
			out.List = append(out.List, rules.NewNegation[T](spec.Name, spec.Target))
			continue
		}
		rule, err := rules.NewRule[T](ctx, spec.Name, spec.Message, spec.Rego)
		if err != nil {
			return rules.Rules[T]{}, perrors.NewIntegrity("malformed policy binding", err).
				WithCode(perrors.CodePolicyMalformed).WithResource(key)
		}
		out.List = append(out.List, rule)
	}
	return out, nil
}

// resourceRulesAt returns the compiled resource-rule chain for key,
// compiling and memoising on first access. present is false if no binding
// exists at key.
func (r *Resolver) resourceRulesAt(ctx context.Context, key string, b *Binding) (rules.Rules[model.LeafResource], bool, error) {
	if b == nil {
		return rules.Rules[model.LeafResource]{}, false, nil
	}

	r.mu.RLock()
	compiled, ok := r.compiledResource[key]
	r.mu.RUnlock()
	if ok {
		return compiled, true, nil
	}

	compiled, err := compileSpecs[model.LeafResource](ctx, key, b.ResourceMessage, b.ResourceRules)
	if err != nil {
		return rules.Rules[model.LeafResource]{}, false, err
	}

	r.mu.Lock()
	r.compiledResource[key] = compiled
	r.mu.Unlock()
	return compiled, true, nil
}

func (r *Resolver) recordRulesAt(ctx context.Context, key string, b *Binding) (rules.Rules[model.Record], bool, error) {
	if b == nil || len(b.RecordRules) == 0 {
		return rules.Rules[model.Record]{}, false, nil
	}

	r.mu.RLock()
	compiled, ok := r.compiledRecord[key]
	r.mu.RUnlock()
	if ok {
		return compiled, true, nil
	}

	compiled, err := compileSpecs[model.Record](ctx, key, b.RecordMessage, b.RecordRules)
	if err != nil {
		return rules.Rules[model.Record]{}, false, err
	}

	r.mu.Lock()
	r.compiledRecord[key] = compiled
	r.mu.Unlock()
	return compiled, true, nil
}

// CanAccess filters resources to the subset the actor may see after
// resource-level rules are applied, chaining every ancestor's binding
// into one merged rule set.
func (r *Resolver) CanAccess(ctx context.Context, actor rules.Actor, resources []model.LeafResource) ([]model.LeafResource, error) {
	accessible := make([]model.LeafResource, 0, len(resources))

	for _, leaf := range resources {
		keys := chainKeys(leaf)
		bindings, err := r.fetchBindings(ctx, keys)
		if err != nil {
			return nil, err
		}

		var sources []rules.Rules[model.LeafResource]
		for i, key := range keys {
			chain, present, err := r.resourceRulesAt(ctx, key, bindings[i])
			if err != nil {
				return nil, err
			}
			if present {
				sources = append(sources, chain)
			}
		}

		mergeCtx := telemetry.WithPolicyMergeContext(ctx, leaf.ID(), "resource")
		merged, present := rules.Chain(sources)
		telemetry.EndPolicyMergeContext(mergeCtx, "resource", len(merged.List), nil)
		if !present {
			r.logger.Debug().Str("resource", leaf.ID()).Msg("no applicable policy, resource filtered out")
			recordResourceDenied(ctx, "no_policy")
			continue
		}

		result, keep, err := rules.ApplyChain(ctx, merged, leaf, actor)
		if err != nil {
			return nil, err
		}
		if !keep {
			r.logger.Debug().Str("resource", leaf.ID()).Msg("resource denied by merged policy")
			recordResourceDenied(ctx, "denied_by_policy")
			continue
		}
		accessible = append(accessible, result)
	}

	return accessible, nil
}

// recordResourceDenied increments resources_denied_total when ctx carries
// a Telemetry instance; a no-op otherwise.
func recordResourceDenied(ctx context.Context, reason string) {
	if tel := telemetry.FromTelemetryContext(ctx); tel != nil {
		tel.Metrics.RecordResourceDenied(reason)
	}
}

// GetPolicy returns the merged record-rule chain for each accessible
// resource, keyed by resource ID. A resource with resource-rules but no
// record-rules is logged at warn and omitted rather than failing the
// whole call.
func (r *Resolver) GetPolicy(ctx context.Context, resources []model.LeafResource) (map[string]Policy, error) {
	out := make(map[string]Policy, len(resources))

	for _, leaf := range resources {
		keys := chainKeys(leaf)
		bindings, err := r.fetchBindings(ctx, keys)
		if err != nil {
			return nil, err
		}

		var sources []rules.Rules[model.Record]
		anyBinding := false
		for i, key := range keys {
			if bindings[i] != nil {
				anyBinding = true
			}
			chain, present, err := r.recordRulesAt(ctx, key, bindings[i])
			if err != nil {
				return nil, err
			}
			if present {
				sources = append(sources, chain)
			}
		}

		mergeCtx := telemetry.WithPolicyMergeContext(ctx, leaf.ID(), "record")
		merged, present := rules.Chain(sources)
		telemetry.EndPolicyMergeContext(mergeCtx, "record", len(merged.List), nil)
		if !present {
			if anyBinding {
				r.logger.Warn().Str("resource", leaf.ID()).Msg("resource has resource-rules but no record-rules, omitting from policy map")
			} else {
				r.logger.Debug().Str("resource", leaf.ID()).Msg("no record-rule policy, resource omitted")
			}
			continue
		}

		out[leaf.ID()] = Policy{RecordRules: merged}
	}

	return out, nil
}

// SetResourcePolicy writes binding under resourcePolicy.<resourceID> and
// invalidates any compiled chain cached for that key.
func (r *Resolver) SetResourcePolicy(ctx context.Context, resourceID string, binding Binding) (bool, error) {
	return r.setBinding(ctx, resourceKey(resourceID), binding)
}

// SetTypePolicy writes binding under dataTypePolicy.<dataType> and
// invalidates any compiled chain cached for that key.
func (r *Resolver) SetTypePolicy(ctx context.Context, dataType string, binding Binding) (bool, error) {
	return r.setBinding(ctx, typeKey(dataType), binding)
}

func (r *Resolver) setBinding(ctx context.Context, key string, binding Binding) (bool, error) {
	ok, err := r.gateway.Add(ctx, serviceNamespace, key, binding, 0)
	if err != nil {
		return false, perrors.NewUnavailable("failed to write policy binding", err).
			WithCode(perrors.CodeCacheUnavailable).WithResource(key).WithOperation("setBinding")
	}

	r.mu.Lock()
	delete(r.compiledResource, key)
	delete(r.compiledRecord, key)
	r.mu.Unlock()

	return ok, nil
}
