package policy

import (
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/rules"
)

// RuleSpec is the serialisable description of one rules.Rule, stored in
// the Cache Gateway and compiled on load. A negation entry carries no Rego
// source: Target names the rule it revokes.
type RuleSpec struct {
	Name     string `json:"name"`
	Message  string `json:"message,omitempty"`
	Negation bool   `json:"negation,omitempty"`
	Target   string `json:"target,omitempty"`
	Rego     string `json:"rego,omitempty"`
}

// Binding is the serialised form of a PolicyBinding: the resource-rule
// and record-rule lists contributed by one cache key,
// either `resourcePolicy.<id>` or `dataTypePolicy.<type>`.
type Binding struct {
	ResourceRules   []RuleSpec `json:"resource_rules,omitempty"`
	ResourceMessage string     `json:"resource_message,omitempty"`
	RecordRules     []RuleSpec `json:"record_rules,omitempty"`
	RecordMessage   string     `json:"record_message,omitempty"`
}

// Policy is the result of a GetPolicy call: the merged record-rule chain
// for one accessible resource. ResourceRules is left unset by GetPolicy;
// callers needing the resource-rule chain use CanAccess.
type Policy struct {
	ResourceRules rules.Rules[model.LeafResource]
	RecordRules   rules.Rules[model.Record]
}
