package rules

import "context"

// NoRulesSet is the sentinel message distinguishing "no message was ever
// explicitly set" from an explicitly empty message.
const NoRulesSet = "NO_RULES_SET"

// Rules is an ordered, named collection of Rule<T> with a human message.
type Rules[T any] struct {
	Message string
	List    []Rule[T]
}

// Empty returns a Rules value carrying no rules and the sentinel message.
func Empty[T any]() Rules[T] {
	return Rules[T]{Message: NoRulesSet}
}

func isSentinel(msg string) bool {
	return msg == "" || msg == NoRulesSet
}

func combineMessage(accMsg, newMsg string) string {
	switch {
	case !isSentinel(accMsg) && !isSentinel(newMsg):
		return accMsg + ", " + newMsg
	case isSentinel(accMsg) && !isSentinel(newMsg):
		return newMsg
	default:
		return accMsg
	}
}

// Merge applies next's negations against accumulated only (the rules
// contributed by ancestors), then appends next's own non-negation rules
// unfiltered. A binding that both defines and negates the same name in
// its own List is not self-cancelling: only a same-named rule already
// present in accumulated is removed. Negation entries never survive into
// the result. It never mutates accumulated's or next's underlying rule
// slices.
func Merge[T any](accumulated, next Rules[T]) Rules[T] {
	targets := make(map[string]bool)
	for _, r := range next.List {
		if r.Negation {
			targets[r.Target] = true
		}
	}

	merged := make([]Rule[T], 0, len(accumulated.List)+len(next.List))
	for _, r := range accumulated.List {
		if targets[r.Name] {
			continue
		}
		merged = append(merged, r)
	}
	for _, r := range next.List {
		if r.Negation {
			continue
		}
		merged = append(merged, r)
	}

	return Rules[T]{
		Message: combineMessage(accumulated.Message, next.Message),
		List:    merged,
	}
}

// Chain folds Merge over sources in order: the first source is merged
// against an empty accumulator, which strips any negation entries it
// carries before it seeds the result. present reports whether any source
// was supplied at all. present == false means "no policy applies"; the
// caller treats the subject as inaccessible.
func Chain[T any](sources []Rules[T]) (merged Rules[T], present bool) {
	for i, s := range sources {
		if i == 0 {
			merged = Merge(Rules[T]{}, s)
			present = true
			continue
		}
		merged = Merge(merged, s)
	}
	return merged, present
}

// ApplyChain threads subject through rs's rules in order. Each rule may
// transform the subject or drop it (keep == false); ApplyChain stops at
// the first drop and reports it to the caller.
func ApplyChain[T any](ctx context.Context, rs Rules[T], subject T, actor Actor) (result T, keep bool, err error) {
	result = subject
	for _, r := range rs.List {
		result, keep, err = r.Apply(ctx, result, actor)
		if err != nil {
			return result, false, err
		}
		if !keep {
			return result, false, nil
		}
	}
	return result, true, nil
}
