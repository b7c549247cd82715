package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

type authzService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

// NewAuthzService returns the Authorizer backed by the user directory.
func NewAuthzService(users ports.UserRepository, log zerolog.Logger) ports.Authorizer {
	return &authzService{users: users, log: log}
}

// RoleOf resolves the caller's role. Any failure — empty id, missing user,
// storage error, unknown role value — degrades to RoleUser (fail closed).
func (s *authzService) RoleOf(ctx context.Context, userID string) domain.Role {
	if userID == "" {
		return domain.RoleUser
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", userID).Msg("role lookup failed, defaulting to user")
		return domain.RoleUser
	}
	if !user.Role.Valid() {
		return domain.RoleUser
	}
	return user.Role
}

func (s *authzService) IsModerator(ctx context.Context, userID string) bool {
	return s.RoleOf(ctx, userID).AtLeast(domain.RoleModerator)
}

func (s *authzService) IsAdmin(ctx context.Context, userID string) bool {
	return s.RoleOf(ctx, userID) == domain.RoleAdmin
}

func (s *authzService) CanModerateEvents(ctx context.Context, userID string) bool {
	return s.IsModerator(ctx, userID)
}

func (s *authzService) CanManageUsers(ctx context.Context, userID string) bool {
	return s.IsAdmin(ctx, userID)
}
