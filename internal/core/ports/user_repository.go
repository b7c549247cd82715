package ports

import (
	"context"

	"github.com/gatherly/community-service/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// InterestRepository serves the interest lookup table.
type InterestRepository interface {
	List(ctx context.Context) ([]*domain.Interest, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Interest, error)
}
