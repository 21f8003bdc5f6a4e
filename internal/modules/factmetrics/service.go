package factmetrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"admetrics/internal/domain"
	"admetrics/internal/pkg/apperr"
	"admetrics/internal/pkg/logger"
	"admetrics/internal/pkg/telemetry"
	"admetrics/internal/pkg/validator"
	"admetrics/internal/probe"
	"admetrics/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	EventCreated = "fact.created"
	EventUpdated = "fact.updated"
)

// Publisher receives every committed fact mutation.
type Publisher interface {
	Publish(eventType, advertiseID string, payload any)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type AdReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Caller is who triggered the event. An empty UserID means a guest.
type Caller struct {
	UserID string
	Client probe.Client
}

// Service is the fact upsert engine. All mutations for one
// (advertisement, registered user) pair are serialized in-process and run in
// a single transaction; the unique index on (advertise_id, register_user, day)
// covers writers in other processes.
type Service struct {
	facts     *repository.FactRepository
	resolver  *Resolver
	users     UserReader
	ads       AdReader
	prober    probe.Prober
	publisher Publisher
	now       func() time.Time
	locks     *keyLock
	log       zerolog.Logger
}

func NewService(
	facts *repository.FactRepository,
	resolver *Resolver,
	users UserReader,
	ads AdReader,
	prober probe.Prober,
) *Service {
	return &Service{
		facts:    facts,
		resolver: resolver,
		users:    users,
		ads:      ads,
		prober:   prober,
		now:      time.Now,
		locks:    newKeyLock(),
		log:      logger.WithComponent("factmetrics"),
	}
}

// WithClock replaces the source of "now". Used by tests and nothing else.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

type outcome struct {
	row     *domain.FactAdMetricsDaily
	result  string
	created bool
}

// ToggleLike sets the like flag on the caller's latest row for the
// advertisement, creating a row when there is none. Guests may only record
// an impression: a guest like is rejected.
func (s *Service) ToggleLike(ctx context.Context, caller Caller, advertiseID string, likes *bool) (*domain.FactAdMetricsDaily, error) {
	liked := likes != nil && *likes

	out, err := s.toggleLike(ctx, caller, advertiseID, liked)
	if err != nil {
		s.reject(telemetry.KindLike, err)
		return nil, err
	}
	s.commit(telemetry.KindLike, out)
	return out.row, nil
}

func (s *Service) toggleLike(ctx context.Context, caller Caller, advertiseID string, liked bool) (*outcome, error) {
	if advertiseID == "" {
		return nil, ErrAdIDRequired
	}
	if caller.UserID == "" && liked {
		return nil, ErrLoginRequired
	}
	if err := s.ensureAd(ctx, advertiseID); err != nil {
		return nil, err
	}

	if caller.UserID == "" {
		return s.recordGuestImpression(ctx, caller, advertiseID)
	}

	user, err := s.lookupUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(advertiseID, user.ID))
	defer unlock()

	snap := s.lazySnapshot(ctx, caller.Client)
	now := s.now()

	var out *outcome
	err = s.transaction(ctx, func(facts *repository.FactRepository, resolver *Resolver) error {
		latest, err := facts.LatestForUser(ctx, advertiseID, user.ID)
		if err == nil {
			latest.Likes = liked
			if err := facts.SaveCounters(ctx, latest); err != nil {
				return err
			}
			out = &outcome{row: latest, result: telemetry.OutcomeUpdated}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row, created, err := s.insertToday(ctx, facts, resolver, advertiseID, user, snap(), now, func(f *domain.FactAdMetricsDaily) {
			f.Likes = liked
		})
		if err != nil {
			return err
		}
		if !created {
			row.Likes = liked
			if err := facts.SaveCounters(ctx, row); err != nil {
				return err
			}
			out = &outcome{row: row, result: telemetry.OutcomeUpdated}
			return nil
		}
		out = &outcome{row: row, result: telemetry.OutcomeCreated, created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) recordGuestImpression(ctx context.Context, caller Caller, advertiseID string) (*outcome, error) {
	snap := s.prober.Probe(ctx, caller.Client)
	now := s.now()

	var row *domain.FactAdMetricsDaily
	err := s.transaction(ctx, func(facts *repository.FactRepository, resolver *Resolver) error {
		dims, err := resolver.Environment(ctx, snap, now)
		if err != nil {
			return err
		}
		guest, err := resolver.Guest(ctx, snap)
		if err != nil {
			return err
		}
		gender, err := resolver.Gender(ctx, string(domain.GenderUnknown))
		if err != nil {
			return err
		}

		row = newFactRow(advertiseID, dims)
		row.GuestUser = &guest.ID
		row.GenderID = gender.ID
		if !row.HasSingleIdentity() {
			return ErrIdentityAmbiguous
		}
		return facts.Create(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return &outcome{row: row, result: telemetry.OutcomeCreated, created: true}, nil
}

// RecordConversion counts a click on the advertisement's buy link. The first
// click of a day marks the row converted; a click on a later day than the
// caller's latest row opens a new row for today.
func (s *Service) RecordConversion(ctx context.Context, caller Caller, advertiseID string) (*domain.FactAdMetricsDaily, error) {
	out, err := s.recordConversion(ctx, caller, advertiseID)
	if err != nil {
		s.reject(telemetry.KindConversion, err)
		return nil, err
	}
	s.commit(telemetry.KindConversion, out)
	return out.row, nil
}

func (s *Service) recordConversion(ctx context.Context, caller Caller, advertiseID string) (*outcome, error) {
	if caller.UserID == "" {
		return nil, ErrLoginRequired
	}
	if advertiseID == "" {
		return nil, ErrAdIDRequired
	}

	user, err := s.lookupUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(advertiseID, user.ID))
	defer unlock()

	snap := s.lazySnapshot(ctx, caller.Client)
	now := s.now()
	today := now.Format(domain.DayLayout)

	var out *outcome
	err = s.transaction(ctx, func(facts *repository.FactRepository, resolver *Resolver) error {
		row, err := facts.LatestForUser(ctx, advertiseID, user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMetricsNotFound
		}
		if err != nil {
			return err
		}

		date, err := resolver.DateByID(ctx, row.DimDateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDateNotFound
		}
		if err != nil {
			return err
		}

		if date.DateCreated != today {
			prior := row
			next, created, err := s.insertToday(ctx, facts, resolver, advertiseID, user, snap(), now, func(f *domain.FactAdMetricsDaily) {
				f.Likes = prior.Likes
				f.Conversions = true
				f.Clicks = "1"
			})
			if err != nil {
				return err
			}
			if created {
				out = &outcome{row: next, result: telemetry.OutcomeDaySplit, created: true}
				return nil
			}
			row = next
		}

		row.Conversions = true
		if err := row.IncrementClicks(); err != nil {
			return ErrInvalidClicks
		}
		if err := facts.SaveCounters(ctx, row); err != nil {
			return err
		}
		out = &outcome{row: row, result: telemetry.OutcomeUpdated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListFilter selects fact rows. Dates are inclusive YYYY-MM-DD bounds.
type ListFilter struct {
	StartDate    string
	EndDate      string
	RegionID     string
	PlatformID   string
	DeviceTypeID string
	GenderID     string
}

// List returns fact rows matching f. A date range takes precedence over the
// dimension filters, of which only the first supplied applies.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.FactAdMetricsDaily, error) {
	if f.StartDate != "" && !validator.IsDay(f.StartDate) {
		return nil, ErrInvalidStartDate
	}
	if f.EndDate != "" && !validator.IsDay(f.EndDate) {
		return nil, ErrInvalidEndDate
	}

	rows, err := s.facts.List(ctx, repository.FactFilter{
		StartDate:    f.StartDate,
		EndDate:      f.EndDate,
		RegionID:     f.RegionID,
		PlatformID:   f.PlatformID,
		DeviceTypeID: f.DeviceTypeID,
		GenderID:     f.GenderID,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Error loading data", err)
	}
	return rows, nil
}

// insertToday resolves fresh dimensions and inserts a row for today. When a
// row for (advertisement, user, today) already exists the insert is skipped
// and that row is returned with created=false.
func (s *Service) insertToday(
	ctx context.Context,
	facts *repository.FactRepository,
	resolver *Resolver,
	advertiseID string,
	user *domain.User,
	snap probe.Snapshot,
	now time.Time,
	init func(f *domain.FactAdMetricsDaily),
) (*domain.FactAdMetricsDaily, bool, error) {
	dims, err := resolver.Environment(ctx, snap, now)
	if err != nil {
		return nil, false, err
	}

	genderID := user.GenderID
	if genderID == "" {
		g, err := resolver.Gender(ctx, string(domain.GenderUnknown))
		if err != nil {
			return nil, false, err
		}
		genderID = g.ID
	}

	userID := user.ID
	row := newFactRow(advertiseID, dims)
	row.RegisterUser = &userID
	row.GenderID = genderID
	init(row)
	if !row.HasSingleIdentity() {
		return nil, false, ErrIdentityAmbiguous
	}

	inserted, err := facts.InsertIfAbsent(ctx, row)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return row, true, nil
	}

	s.log.Debug().
		Str("advertise_id", advertiseID).
		Str("user_id", userID).
		Str("day", dims.Day()).
		Msg("fact row for today already exists, updating in place")

	existing, err := facts.ForUserOnDay(ctx, advertiseID, userID, dims.Day())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func newFactRow(advertiseID string, dims *Dimensions) *domain.FactAdMetricsDaily {
	return &domain.FactAdMetricsDaily{
		AdvertiseID:  advertiseID,
		Impressions:  true,
		Clicks:       "0",
		DimDateID:    dims.Date.ID,
		Day:          dims.Day(),
		PlatformID:   dims.Platform.ID,
		DeviceTypeID: dims.Device.ID,
		RegionID:     dims.Region.ID,
	}
}

// transaction runs fn with tx-bound repositories. Errors that are not already
// classified are reported as Unexpected with the cause attached.
func (s *Service) transaction(ctx context.Context, fn func(facts *repository.FactRepository, resolver *Resolver) error) error {
	err := s.facts.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.facts.WithTx(tx), s.resolver.WithTx(tx))
	})
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.Unexpected, "Error saving data", err)
}

func (s *Service) ensureAd(ctx context.Context, advertiseID string) error {
	ok, err := s.ads.Exists(ctx, advertiseID)
	if err != nil {
		return apperr.Wrap(apperr.Unexpected, "Error loading advertisement", err)
	}
	if !ok {
		return ErrAdNotFound
	}
	return nil
}

func (s *Service) lookupUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Error loading user", err)
	}
	return user, nil
}

// lazySnapshot defers probing until a row is actually created; in-place
// updates never need it.
func (s *Service) lazySnapshot(ctx context.Context, client probe.Client) func() probe.Snapshot {
	var (
		once sync.Once
		snap probe.Snapshot
	)
	return func() probe.Snapshot {
		once.Do(func() { snap = s.prober.Probe(ctx, client) })
		return snap
	}
}

func (s *Service) commit(kind string, out *outcome) {
	telemetry.FactEvents.WithLabelValues(kind, out.result).Inc()

	s.log.Info().
		Str("kind", kind).
		Str("outcome", out.result).
		Str("fact_id", out.row.ID).
		Str("advertise_id", out.row.AdvertiseID).
		Str("clicks", out.row.Clicks).
		Msg("fact recorded")

	if s.publisher == nil {
		return
	}
	eventType := EventUpdated
	if out.created {
		eventType = EventCreated
	}
	s.publisher.Publish(eventType, out.row.AdvertiseID, out.row)
}

func (s *Service) reject(kind string, err error) {
	telemetry.FactEvents.WithLabelValues(kind, telemetry.OutcomeRejected).Inc()

	ev := s.log.Debug()
	if apperr.KindOf(err) == apperr.Unexpected {
		ev = s.log.Error()
	}
	ev.Err(err).Str("kind", kind).Msg("fact event rejected")
}

func lockKey(advertiseID, userID string) string {
	return advertiseID + "|" + userID
}
