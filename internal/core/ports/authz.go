package ports

import (
	"context"

	"github.com/gatherly/community-service/internal/core/domain"
)

// Authorizer maps an opaque user identity to a role and answers capability
// questions. Lookups fail closed: an unknown or unreadable user is a plain
// RoleUser.
type Authorizer interface {
	RoleOf(ctx context.Context, userID string) domain.Role
	IsModerator(ctx context.Context, userID string) bool
	IsAdmin(ctx context.Context, userID string) bool

	// CanModerateEvents and CanManageUsers are kept as distinct named
	// capabilities even though they currently alias IsModerator and IsAdmin,
	// so call sites survive future capability divergence.
	CanModerateEvents(ctx context.Context, userID string) bool
	CanManageUsers(ctx context.Context, userID string) bool
}
