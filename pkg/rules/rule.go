package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
)

// Actor bundles the user and request context a Rule is evaluated against.
type Actor struct {
	User    model.User
	Context model.Context
}

// Rule is a named predicate/transform over a subject T, evaluated given an
// Actor. A regular rule carries a compiled Rego module; its package must
// export a `result` value that is either `true` (keep the subject
// unchanged), a transformed value (keep, replacing the subject), or
// `false` or undefined (drop the subject). A negation rule carries no Rego body: its
// only effect is to remove, by name, a rule contributed earlier in a
// merge (see Merge in rules.go); it is never evaluated itself.
type Rule[T any] struct {
	Name     string
	Message  string
	Negation bool
	Target   string // for negation rules: the name of the rule being revoked

	source string
	query  rego.PreparedEvalQuery
}

// NewRule compiles a Rego module for a regular (non-negation) rule. regoSrc
// must declare `package palisade.rules.<name>` (any package name works;
// NewRule queries it by the module's own declared package) and define
// `result`.
func NewRule[T any](ctx context.Context, name, message, regoSrc string) (Rule[T], error) {
	module, err := ast.ParseModule(name, regoSrc)
	if err != nil {
		return Rule[T]{}, perrors.NewIntegrity("malformed rule body", err).WithCode(perrors.CodePolicyMalformed).WithResource(name)
	}

	query := fmt.Sprintf("data.%s.result", module.Package.Path.String()[len("data."):])
	r := rego.New(
		rego.Module(name, regoSrc),
		rego.Query(query),
	)

	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return Rule[T]{}, perrors.NewIntegrity("failed to prepare rule", err).WithCode(perrors.CodePolicyMalformed).WithResource(name)
	}

	return Rule[T]{Name: name, Message: message, source: regoSrc, query: prepared}, nil
}

// NewNegation builds a negation rule: when merged in, it removes every
// occurrence of the rule named target contributed by an ancestor.
func NewNegation[T any](name, target string) Rule[T] {
	return Rule[T]{Name: name, Negation: true, Target: target}
}

// Apply evaluates the rule against subject for actor. It returns the
// (possibly transformed) subject and whether it survives; keep is false
// exactly when the Rego module's `result` is undefined or explicitly
// false.
func (r Rule[T]) Apply(ctx context.Context, subject T, actor Actor) (T, bool, error) {
	var zero T
	if r.Negation {
		// Negations are resolved at merge time, never evaluated directly.
		return subject, true, nil
	}

	input := map[string]any{
		"subject": subject,
		"user":    actor.User,
		"context": actor.Context,
	}

	rs, err := r.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return zero, false, perrors.NewIntegrity("rule evaluation failed", err).WithCode(perrors.CodePolicyMalformed).WithResource(r.Name)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return zero, false, nil
	}

	value := rs[0].Expressions[0].Value
	if value == nil {
		return zero, false, nil
	}
	if b, ok := value.(bool); ok {
		if !b {
			return zero, false, nil
		}
		return subject, true, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return zero, false, perrors.NewIntegrity("rule produced an unmarshalable result", err).WithCode(perrors.CodePolicyMalformed).WithResource(r.Name)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false, perrors.NewIntegrity("rule result does not match subject type", err).WithCode(perrors.CodePolicyMalformed).WithResource(r.Name)
	}
	return out, true, nil
}
