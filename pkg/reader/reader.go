// Package reader defines the Record Reader contract: a data-node-side
// stream over one InputSplit's resources. The
// implementation here is an inert stub — actual streaming and record-rule
// application belongs to the data node, not to Palisade's planning path.
package reader

import (
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
)

// Reader iterates the records behind one InputSplit.
type Reader interface {
	// Init binds the reader to split. It fails with SplitTypeMismatch if
	// split is not a kind this reader supports, and with EmptySplit if
	// split carries no DataRequestResponse.
	Init(split any) error

	// NextKeyValue advances to the next record, returning false once
	// exhausted.
	NextKeyValue() bool

	// CurrentKey and CurrentValue expose the record last advanced to by
	// NextKeyValue. Calling either before a successful NextKeyValue, or
	// after it returns false, is undefined.
	CurrentKey() string
	CurrentValue() model.Record

	// Progress reports completion in [0,1].
	Progress() float64

	// Close releases any stream resources.
	Close() error
}

// StubReader is an inert reader: it accepts any non-empty *model.InputSplit,
// never produces a record, and reports complete progress immediately.
// An earlier draft's type check was inverted, rejecting valid splits;
// StubReader implements the intended check instead.
type StubReader struct {
	split *model.InputSplit
}

// Init accepts split if it is a *model.InputSplit carrying a non-empty
// DataRequestResponse; it rejects anything else with SplitTypeMismatch,
// and a recognised-but-empty split with EmptySplit.
func (r *StubReader) Init(split any) error {
	s, ok := split.(*model.InputSplit)
	if !ok {
		return perrors.NewIntegrity("split is not a PalisadeInputSplit", nil).
			WithCode(perrors.CodeSplitTypeMismatch).WithOperation("Init")
	}
	if len(s.Response.Resources) == 0 && s.Response.Token == "" {
		return perrors.NewIntegrity("split carries no data request response", nil).
			WithCode(perrors.CodeEmptySplit).WithOperation("Init")
	}

	r.split = s
	return nil
}

func (r *StubReader) NextKeyValue() bool       { return false }
func (r *StubReader) CurrentKey() string       { return "" }
func (r *StubReader) CurrentValue() model.Record { return nil }
func (r *StubReader) Progress() float64        { return 1 }
func (r *StubReader) Close() error             { return nil }
