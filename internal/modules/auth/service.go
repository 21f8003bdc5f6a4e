package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"admetrics/internal/database"
	"admetrics/internal/domain"
	"admetrics/internal/pkg/apperr"
	"admetrics/internal/pkg/validator"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	createdDateLayout = "02-01-2006"
	createdTimeLayout = "15:04:05"
)

// Service contains all business logic for authentication
type Service struct {
	users UserRepositoryInterface
	dims  DimensionResolver
	jwt   jwtService
	now   func() time.Time
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
	ExpiresIn   time.Duration
}

func NewService(users UserRepositoryInterface, dims DimensionResolver, jwt jwtService) *Service {
	return &Service{
		users: users,
		dims:  dims,
		jwt:   jwt,
		now:   time.Now,
	}
}

// Register creates a user with its gender and age-group dimensions resolved.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*UserPublic, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, validationError(fields)
	}
	gender := strings.ToLower(strings.TrimSpace(req.Gender))
	if gender == "" {
		gender = string(domain.GenderUnknown)
	}

	if err := s.validateEmailUnique(ctx, req.Email); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	genderDim, err := s.dims.Gender(ctx, gender)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Error saving data", err)
	}
	ageGroup, err := s.dims.AgeGroup(ctx, req.DateOfBirth, now)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Error saving data", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashedPassword,
		DateOfBirth:  req.DateOfBirth,
		IsSuperadmin: req.IsSuperadmin,
		GenderID:     genderDim.ID,
		AgeGroupID:   ageGroup.ID,
		CreatedDate:  now.Format(createdDateLayout),
		CreatedTime:  now.Format(createdTimeLayout),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, apperr.Wrap(apperr.Unexpected, "Error saving data", err)
	}

	return &UserPublic{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		DateOfBirth:  user.DateOfBirth,
		IsSuperadmin: user.IsSuperadmin,
		AgeRange:     ageGroup.AgeRange,
		Gender:       genderDim.Gender,
		CreatedDate:  user.CreatedDate,
		CreatedTime:  user.CreatedTime,
	}, nil
}

// Authenticate checks credentials without revealing which of them was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Wrap(apperr.Unexpected, "Error loading user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Error issuing token", err)
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, AccessToken: token, ExpiresIn: s.jwt.TTL()}, nil
}

func (s *Service) validateEmailUnique(ctx context.Context, email string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return apperr.Wrap(apperr.Unexpected, "Error loading user", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Unexpected, "Error hashing password", err)
	}
	return string(hash), nil
}
