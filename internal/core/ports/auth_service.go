package ports

import (
	"context"

	"github.com/gatherly/community-service/internal/core/domain"
)

// AuthService handles registration and credential-based login.
type AuthService interface {
	Register(ctx context.Context, displayName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
