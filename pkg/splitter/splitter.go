// Package splitter implements the Split Planner: turning a batch of
// RegisterDataRequests into a flat list of InputSplits
// for a parallel executor, honouring a configurable max-parallelism hint.
package splitter

import (
	"context"

	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/palisade/palisade/pkg/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Coordinator is the subset of coordinator.Coordinator the planner needs.
type Coordinator interface {
	RegisterDataRequest(ctx context.Context, req model.RegisterDataRequest) (model.DataRequestResponse, error)
}

// Job is the planner's input: a non-empty, order-significant list of
// requests plus a max-parallelism hint. H == 0 means unbounded (one split
// per resource).
type Job struct {
	Requests []model.RegisterDataRequest
	hint     int
}

// NewJob returns a Job with requests and hint 0 (unbounded). Use
// SetMaxParallelismHint to set a bound.
func NewJob(requests []model.RegisterDataRequest) Job {
	return Job{Requests: append([]model.RegisterDataRequest(nil), requests...)}
}

// SetMaxParallelismHint sets H. A negative hint fails synchronously with
// perrors.KindInvalidArgument and leaves the stored hint unchanged.
func (j *Job) SetMaxParallelismHint(h int) error {
	if h < 0 {
		return perrors.NewInvalidArgument("max-parallelism hint must be non-negative", nil).
			WithCode(perrors.CodeInvalidHint).WithOperation("SetMaxParallelismHint")
	}
	j.hint = h
	return nil
}

// MaxParallelismHint returns the stored hint.
func (j Job) MaxParallelismHint() int { return j.hint }

// Planner turns Jobs into InputSplits via a bound Coordinator.
type Planner struct {
	coordinator Coordinator
	logger      zerolog.Logger
	tel         *telemetry.Telemetry
}

// New returns a Planner bound to coordinator. A nil coordinator makes
// every GetSplits call fail with MissingCoordinator. tel may be nil, in
// which case GetSplits emits no spans or metrics.
func New(coordinator Coordinator, logger zerolog.Logger, tel *telemetry.Telemetry) *Planner {
	return &Planner{
		coordinator: coordinator,
		logger:      logger.With().Str("component", "split-planner").Logger(),
		tel:         tel,
	}
}

// GetSplits runs concurrent per-request registration, then round-robin
// partitioning of each
// response's resource set into at most min(|resources|, H) splits (or
// exactly |resources| splits when H == 0), concatenated in input-request
// order.
func (p *Planner) GetSplits(ctx context.Context, job Job) (splits []model.InputSplit, err error) {
	if p.tel != nil {
		ctx = p.tel.WithContext(ctx)
		spanCtx, span := p.tel.Tracer.StartSplitPlanSpan(ctx, len(job.Requests), job.hint)
		timer := telemetry.NewTimer()
		ctx = spanCtx
		defer func() {
			status := "ok"
			if err != nil {
				status = "error"
				telemetry.RecordError(span, err)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
			p.tel.Metrics.RecordSplitsPlanned(status, timer.Duration())
		}()
	}

	if p.coordinator == nil {
		err = perrors.NewConfig("no coordinator bound", nil).
			WithCode(perrors.CodeMissingCoordinator).WithOperation("GetSplits")
		return nil, err
	}
	if len(job.Requests) == 0 {
		err = perrors.NewInvalidArgument("no requests registered", nil).
			WithCode(perrors.CodeNoRequests).WithOperation("GetSplits")
		return nil, err
	}
	if job.hint < 0 {
		err = perrors.NewInvalidArgument("max-parallelism hint is negative", nil).
			WithCode(perrors.CodeInvalidHint).WithOperation("GetSplits")
		return nil, err
	}

	responses := make([]model.DataRequestResponse, len(job.Requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range job.Requests {
		i, req := i, req
		g.Go(func() error {
			resp, rerr := p.coordinator.RegisterDataRequest(gctx, req)
			if rerr != nil {
				p.logger.Error().Err(rerr).Str("resource", req.ResourceName).Msg("failed to register data request")
				return rerr
			}
			responses[i] = resp
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	for _, resp := range responses {
		splits = append(splits, partition(resp, job.hint)...)
	}
	p.logger.Debug().Int("requests", len(job.Requests)).Int("splits", len(splits)).Msg("splits planned")
	return splits, nil
}

// partition splits resp's resources round-robin across
// min(len(resp.Resources), hint) splits, or one split per resource when
// hint == 0. Position i of resp.Resources (insertion order) lands in
// split i mod k.
func partition(resp model.DataRequestResponse, hint int) []model.InputSplit {
	n := len(resp.Resources)
	if n == 0 {
		return nil
	}

	k := n
	if hint > 0 && hint < n {
		k = hint
	}

	buckets := make([][]model.ResourceAccess, k)
	for i, ra := range resp.Resources {
		idx := i % k
		buckets[idx] = append(buckets[idx], ra)
	}

	splits := make([]model.InputSplit, 0, k)
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		splits = append(splits, model.InputSplit{
			Response: model.DataRequestResponse{
				Token:     resp.Token,
				Resources: bucket,
			},
		})
	}
	return splits
}
