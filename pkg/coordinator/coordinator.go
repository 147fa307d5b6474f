// Package coordinator implements the Palisade Coordinator: the top-level
// façade that turns a RegisterDataRequest into a token-bound,
// policy-filtered DataRequestResponse.
package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/palisade/palisade/pkg/policy"
	"github.com/palisade/palisade/pkg/rules"
	"github.com/palisade/palisade/pkg/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// serviceNamespace is the Gateway namespace per-token policy maps are
// stored under: token -> map<resource ID, Policy>.
const serviceNamespace = "coordinator"

// Users resolves a UserID to a User record.
type Users interface {
	GetUser(ctx context.Context, id model.UserID) (model.User, error)
}

// Resources expands a logical resource name into leaves + connections.
type Resources interface {
	GetResourcesByID(ctx context.Context, name string) ([]model.ResourceAccess, error)
}

// PolicyResolver filters and resolves policy for a set of leaf resources.
type PolicyResolver interface {
	CanAccess(ctx context.Context, actor rules.Actor, resources []model.LeafResource) ([]model.LeafResource, error)
	GetPolicy(ctx context.Context, resources []model.LeafResource) (map[string]policy.Policy, error)
}

// Coordinator is the façade RegisterDataRequest is submitted to.
type Coordinator struct {
	users     Users
	resources Resources
	policy    PolicyResolver
	gateway   cache.Gateway
	logger    zerolog.Logger
	tokenTTL  time.Duration
	tel       *telemetry.Telemetry
}

// New returns a Coordinator wiring the three collaborator services and a
// cache used to store per-token policy maps. tokenTTL of zero means the
// stored policy map never expires. tel may be nil, in which case
// RegisterDataRequest emits no spans or metrics.
func New(users Users, resources Resources, policyResolver PolicyResolver, gateway cache.Gateway, tokenTTL time.Duration, logger zerolog.Logger, tel *telemetry.Telemetry) *Coordinator {
	return &Coordinator{
		users:     users,
		resources: resources,
		policy:    policyResolver,
		gateway:   gateway,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "coordinator").Logger(),
		tel:       tel,
	}
}

// RegisterDataRequest runs concurrent user/resource fan-out, policy
// filtering, token minting, and storing the filtered policy map under the
// new token.
func (c *Coordinator) RegisterDataRequest(ctx context.Context, req model.RegisterDataRequest) (resp model.DataRequestResponse, err error) {
	if c.tel != nil {
		ctx = c.tel.WithContext(ctx)
		ctx = telemetry.WithRequestContext(ctx, string(req.UserID), req.ResourceName)
		defer func() {
			status := "ok"
			if err != nil {
				status = "error"
			}
			telemetry.EndRequestContext(ctx, status, err)
		}()
	}

	if req.UserID == "" || req.ResourceName == "" || req.Context.Justification == "" {
		err = perrors.NewInvalidArgument("request is missing required fields", nil).
			WithCode(perrors.CodeNullRequest).WithOperation("RegisterDataRequest")
		return model.DataRequestResponse{}, err
	}

	var user model.User
	var resourceAccess []model.ResourceAccess

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ferr error
		user, ferr = c.users.GetUser(gctx, req.UserID)
		return ferr
	})
	g.Go(func() error {
		var ferr error
		resourceAccess, ferr = c.resources.GetResourcesByID(gctx, req.ResourceName)
		return ferr
	})
	if err = g.Wait(); err != nil {
		return model.DataRequestResponse{}, err
	}

	leaves := make([]model.LeafResource, len(resourceAccess))
	connectionByID := make(map[string]model.ConnectionDetail, len(resourceAccess))
	for i, ra := range resourceAccess {
		leaves[i] = ra.Resource
		connectionByID[ra.Resource.ID()] = ra.Connection
	}

	actor := rules.Actor{User: user, Context: req.Context}
	accessible, err := c.policy.CanAccess(ctx, actor, leaves)
	if err != nil {
		return model.DataRequestResponse{}, err
	}

	policyMap, err := c.policy.GetPolicy(ctx, accessible)
	if err != nil {
		return model.DataRequestResponse{}, err
	}

	token := uuid.NewString()
	if _, addErr := c.gateway.Add(ctx, serviceNamespace, token, policyMap, c.tokenTTL); addErr != nil {
		err = perrors.NewUnavailable("failed to store policy map under token", addErr).
			WithCode(perrors.CodeCacheUnavailable).WithResource(token).WithOperation("RegisterDataRequest")
		return model.DataRequestResponse{}, err
	}

	response := model.DataRequestResponse{
		Token:     token,
		Resources: make([]model.ResourceAccess, 0, len(accessible)),
	}
	for _, leaf := range accessible {
		conn, ok := connectionByID[leaf.ID()]
		if !ok {
			c.logger.Warn().Str("resource", leaf.ID()).Msg("accessible resource has no connection descriptor, omitting")
			continue
		}
		response.Resources = append(response.Resources, model.ResourceAccess{Resource: leaf, Connection: conn})
	}

	c.logger.Debug().Str("token", token).Int("resources", len(response.Resources)).Msg("data request registered")
	return response, nil
}

// GetPolicy returns the policy map stored under token, as written by a
// prior RegisterDataRequest call. It is the lookup path a Record Reader
// uses when redeeming a token.
func (c *Coordinator) GetPolicy(ctx context.Context, token string) (map[string]policy.Policy, error) {
	var policyMap map[string]policy.Policy
	found, err := c.gateway.Get(ctx, serviceNamespace, token, &policyMap)
	if err != nil {
		return nil, perrors.NewUnavailable("failed to read policy map", err).
			WithCode(perrors.CodeCacheUnavailable).WithResource(token).WithOperation("GetPolicy")
	}
	if !found {
		return nil, perrors.NewNotFound("token not found or expired", nil).
			WithResource(token).WithOperation("GetPolicy")
	}
	return policyMap, nil
}
