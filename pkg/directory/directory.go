// Package directory implements the User Directory: a thin, cache-backed
// lookup from UserID to User.
package directory

import (
	"context"

	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/perrors"
	"github.com/rs/zerolog"
)

// serviceNamespace is the Gateway namespace User Directory entries are
// stored under, keyed "<user-id>" per user.
const serviceNamespace = "directory"

// Directory resolves user identities and administers the user set.
type Directory interface {
	// GetUser returns the User bound to id. Returns a perrors.KindNotFound
	// error (perrors.CodeNoSuchUser) if no such user exists.
	GetUser(ctx context.Context, id model.UserID) (model.User, error)

	// AddUser registers or replaces a user record.
	AddUser(ctx context.Context, user model.User) (bool, error)
}

// CacheDirectory is a Directory backed by a cache.Gateway.
type CacheDirectory struct {
	gateway cache.Gateway
	logger  zerolog.Logger
}

// New returns a CacheDirectory backed by gateway.
func New(gateway cache.Gateway, logger zerolog.Logger) *CacheDirectory {
	return &CacheDirectory{
		gateway: gateway,
		logger:  logger.With().Str("component", "directory").Logger(),
	}
}

func (d *CacheDirectory) GetUser(ctx context.Context, id model.UserID) (model.User, error) {
	var user model.User
	found, err := d.gateway.Get(ctx, serviceNamespace, string(id), &user)
	if err != nil {
		d.logger.Error().Err(err).Str("user", string(id)).Msg("failed to read user directory")
		return model.User{}, perrors.NewUnavailable("failed to read user directory", err).
			WithCode(perrors.CodeCacheUnavailable).WithResource(string(id)).WithOperation("GetUser")
	}
	if !found {
		d.logger.Debug().Str("user", string(id)).Msg("no such user")
		return model.User{}, perrors.NewNotFound("no such user", nil).
			WithCode(perrors.CodeNoSuchUser).WithResource(string(id)).WithOperation("GetUser")
	}
	return user, nil
}

func (d *CacheDirectory) AddUser(ctx context.Context, user model.User) (bool, error) {
	if user.ID == "" {
		return false, perrors.NewInvalidArgument("user id is required", nil).WithOperation("AddUser")
	}
	ok, err := d.gateway.Add(ctx, serviceNamespace, string(user.ID), user, 0)
	if err != nil {
		d.logger.Error().Err(err).Str("user", string(user.ID)).Msg("failed to write user directory")
		return false, perrors.NewUnavailable("failed to write user directory", err).WithOperation("AddUser")
	}
	d.logger.Debug().Str("user", string(user.ID)).Msg("user registered")
	return ok, nil
}
