// Package rules implements the Rule<T>/Rules<T> primitives and the
// hierarchical merge-with-negation algorithm: an ordered, named
// collection of predicate/transform rules
// evaluated against (subject, user, context), where accumulating rules
// from an ancestor chain concatenates lists in traversal order and lets a
// descendant's negation remove a same-named rule contributed by an
// ancestor.
//
// Each non-negation Rule compiles a Rego module, so rule bodies are a real
// policy language rather than hand-rolled Go closures.
package rules
