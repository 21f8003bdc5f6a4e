package advertisement

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"admetrics/internal/domain"
	"admetrics/internal/pkg/apperr"

	"gorm.io/gorm"
)

// costPerHour is what one hour of campaign runtime costs.
const costPerHour = 100

// maxRunHours caps a campaign at ten years, which keeps the end time and the
// cost well inside int64.
const maxRunHours = 24 * 365 * 10

const (
	endDateLayout = "2006-01-02"
	endTimeLayout = "15:04"
)

type Repository interface {
	Create(ctx context.Context, ad *domain.Advertisement) error
	GetByID(ctx context.Context, id string) (*domain.Advertisement, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Service struct {
	ads           Repository
	users         UserReader
	defaultBuyURL string
	now           func() time.Time
}

func NewService(ads Repository, users UserReader, defaultBuyURL string) *Service {
	return &Service{
		ads:           ads,
		users:         users,
		defaultBuyURL: defaultBuyURL,
		now:           time.Now,
	}
}

// Create records a campaign owned by userID. Cost and end date/time are
// derived from the run hours once, here.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*domain.Advertisement, error) {
	if userID == "" {
		return nil, ErrTokenNotValid
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotValid
		}
		return nil, apperr.Wrap(apperr.Unexpected, "Error loading user", err)
	}

	hours, err := parseRunHours(req.RunHours)
	if err != nil {
		return nil, err
	}

	end := s.now().Add(time.Duration(hours) * time.Hour)

	buyURL := strings.TrimSpace(req.BuyURL)
	if buyURL == "" {
		buyURL = s.defaultBuyURL
	}

	owner := userID
	ad := &domain.Advertisement{
		PromoterName: strings.TrimSpace(req.PromoterName),
		Message:      req.Message,
		BuyURL:       buyURL,
		RunHours:     strconv.Itoa(hours),
		Cost:         strconv.Itoa(costPerHour * hours),
		IsActive:     true,
		EndDate:      end.Format(endDateLayout),
		EndTime:      end.Format(endTimeLayout),
		UserID:       &owner,
	}

	if err := s.ads.Create(ctx, ad); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Error saving advertisement", err)
	}
	return ad, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Advertisement, error) {
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Wrap(apperr.Unexpected, "Error loading advertisement", err)
	}
	return ad, nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.ads.Exists(ctx, id)
}

func parseRunHours(raw string) (int, error) {
	hours, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || hours <= 0 || hours > maxRunHours {
		return 0, ErrInvalidRunHours
	}
	return hours, nil
}
