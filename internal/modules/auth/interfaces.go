package auth

import (
	"context"
	"time"

	"admetrics/internal/domain"
)

// UserRepositoryInterface lists only the methods the auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// DimensionResolver resolves the demographic dimensions stored on a user.
type DimensionResolver interface {
	Gender(ctx context.Context, value string) (*domain.DimGender, error)
	AgeGroup(ctx context.Context, dateOfBirth string, now time.Time) (*domain.DimAgeGroup, error)
}

type jwtService interface {
	GenerateToken(userID string) (string, error)
	TTL() time.Duration
}
