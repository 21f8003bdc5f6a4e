package factmetrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"admetrics/internal/database"
	"admetrics/internal/domain"
	"admetrics/internal/pkg/apperr"
	"admetrics/internal/probe"
	"admetrics/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	eventType   string
	advertiseID string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(eventType, advertiseID string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, advertiseID: advertiseID})
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	resolver *Resolver
	users    *repository.UserRepository
	user     *domain.User
	ad       *domain.Advertisement
	pub      *recordingPublisher
	now      time.Time
}

var testSnapshot = probe.Snapshot{
	Region:       "Almaty",
	City:         "Almaty",
	Country:      "KZ",
	Location:     "43.25,76.92",
	Platform:     "Linux",
	Hostname:     "box-1",
	DeviceType:   "Laptop",
	DeviceVendor: "LENOVO",
	GuestName:    "visitor",
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:factmetrics_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		db:  db,
		pub: &recordingPublisher{},
		now: time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local),
	}
	f.resolver = NewResolver(repository.NewDimensionRepository(db), Policy{})
	f.users = repository.NewUserRepository(db)
	ads := repository.NewAdvertisementRepository(db)

	gender, err := f.resolver.Gender(ctx, "Female")
	require.NoError(t, err)

	f.user = &domain.User{
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		DateOfBirth:  "1990-01-01",
		GenderID:     gender.ID,
	}
	require.NoError(t, f.users.Create(ctx, f.user))

	f.ad = &domain.Advertisement{PromoterName: "Acme", Message: "Buy now", RunHours: "2", Cost: "200", IsActive: true}
	require.NoError(t, ads.Create(ctx, f.ad))

	f.svc = NewService(
		repository.NewFactRepository(db),
		f.resolver,
		f.users,
		ads,
		probe.Static{Snapshot: testSnapshot},
	).WithClock(func() time.Time { return f.now })
	f.svc.SetPublisher(f.pub)

	return f
}

func (f *fixture) caller() Caller {
	return Caller{UserID: f.user.ID, Client: probe.Client{IP: "10.0.0.7"}}
}

func (f *fixture) countFacts(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.FactAdMetricsDaily{}).Count(&n).Error)
	return n
}

func boolPtr(b bool) *bool { return &b }

func TestToggleLike_CreatesRowForUser(t *testing.T) {
	f := newFixture(t)

	row, err := f.svc.ToggleLike(context.Background(), f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)

	require.NotNil(t, row.RegisterUser)
	assert.Equal(t, f.user.ID, *row.RegisterUser)
	assert.Nil(t, row.GuestUser)
	assert.True(t, row.HasSingleIdentity())
	assert.True(t, row.Impressions)
	assert.True(t, row.Likes)
	assert.False(t, row.Conversions)
	assert.Equal(t, "0", row.Clicks)
	assert.Equal(t, "2024-05-01", row.Day)
	assert.Equal(t, f.user.GenderID, row.GenderID)

	date, err := f.resolver.DateByID(context.Background(), row.DimDateID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", date.DateCreated)
	assert.Equal(t, "10:30", date.TimeCreated)

	var device domain.DimDeviceType
	require.NoError(t, f.db.Where("id = ?", row.DeviceTypeID).First(&device).Error)
	assert.Equal(t, "LENOVO Laptop", device.DeviceName)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, EventCreated, f.pub.events[0].eventType)
	assert.Equal(t, f.ad.ID, f.pub.events[0].advertiseID)
}

func TestToggleLike_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)
	second, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Likes)
	assert.Equal(t, int64(1), f.countFacts(t))

	unliked, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, unliked.ID)
	assert.False(t, unliked.Likes)
	assert.Equal(t, int64(1), f.countFacts(t))

	require.Len(t, f.pub.events, 3)
	assert.Equal(t, EventUpdated, f.pub.events[2].eventType)
}

func TestToggleLike_LaterDayUpdatesLatestRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, nil)
	require.NoError(t, err)
	require.False(t, first.Likes)

	f.now = f.now.AddDate(0, 0, 1)

	// Likes never open a new day's row; only conversions split by day.
	liked, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)
	assert.Equal(t, first.ID, liked.ID)
	assert.Equal(t, "2024-05-01", liked.Day)
	assert.True(t, liked.Likes)
	assert.Equal(t, int64(1), f.countFacts(t))

	split, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, split.ID)
	assert.Equal(t, "2024-05-02", split.Day)
	assert.True(t, split.Likes)

	unliked, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(false))
	require.NoError(t, err)
	assert.Equal(t, split.ID, unliked.ID)

	var stored domain.FactAdMetricsDaily
	require.NoError(t, f.db.Where("id = ?", first.ID).First(&stored).Error)
	assert.True(t, stored.Likes)
}

func TestToggleLike_GuestLikeRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleLike(context.Background(), Caller{}, f.ad.ID, boolPtr(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, apperr.NotAuthenticated, apperr.KindOf(err))
	assert.Equal(t, "Please Login First...!", err.Error())
	assert.Equal(t, int64(0), f.countFacts(t))
	assert.Empty(t, f.pub.events)
}

func TestToggleLike_GuestImpression(t *testing.T) {
	f := newFixture(t)

	row, err := f.svc.ToggleLike(context.Background(), Caller{Client: probe.Client{IP: "10.0.0.9"}}, f.ad.ID, boolPtr(false))
	require.NoError(t, err)

	assert.Nil(t, row.RegisterUser)
	require.NotNil(t, row.GuestUser)
	assert.True(t, row.HasSingleIdentity())
	assert.True(t, row.Impressions)
	assert.False(t, row.Likes)

	var guest domain.GuestUser
	require.NoError(t, f.db.Where("id = ?", *row.GuestUser).First(&guest).Error)
	assert.Equal(t, "10.0.0.9", guest.IPAddress)
	assert.Equal(t, "visitor", guest.GuestName)
	assert.Equal(t, "43.25,76.92", guest.Location)

	var gender domain.DimGender
	require.NoError(t, f.db.Where("id = ?", row.GenderID).First(&gender).Error)
	assert.Equal(t, "unknown", gender.Gender)

	// Every guest interaction is a new identity.
	again, err := f.svc.ToggleLike(context.Background(), Caller{}, f.ad.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, *row.GuestUser, *again.GuestUser)
	assert.Equal(t, row.GenderID, again.GenderID)
}

func TestToggleLike_AdvertisementChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ToggleLike(ctx, f.caller(), "", boolPtr(true))
	assert.ErrorIs(t, err, ErrAdIDRequired)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = f.svc.ToggleLike(ctx, f.caller(), "missing-ad", boolPtr(true))
	assert.ErrorIs(t, err, ErrAdNotFound)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestToggleLike_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleLike(context.Background(), Caller{UserID: "ghost"}, f.ad.ID, boolPtr(true))
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestRecordConversion_RequiresIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordConversion(context.Background(), Caller{}, f.ad.ID)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestRecordConversion_NoMetrics(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordConversion(context.Background(), f.caller(), f.ad.ID)
	assert.ErrorIs(t, err, ErrMetricsNotFound)
	assert.Equal(t, "Ad metrics not found", err.Error())
}

func TestRecordConversion_SameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	liked, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)

	first, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)
	assert.Equal(t, liked.ID, first.ID)
	assert.True(t, first.Conversions)
	assert.Equal(t, "1", first.Clicks)

	second, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)
	assert.Equal(t, liked.ID, second.ID)
	assert.True(t, second.Conversions)
	assert.Equal(t, "2", second.Clicks)
	assert.True(t, second.Likes)

	assert.Equal(t, int64(1), f.countFacts(t))
}

func TestRecordConversion_DaySplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)
	prior, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)
	require.Equal(t, "1", prior.Clicks)

	f.now = f.now.AddDate(0, 0, 1)

	split, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)
	assert.NotEqual(t, prior.ID, split.ID)
	assert.Equal(t, "2024-05-02", split.Day)
	assert.Equal(t, "1", split.Clicks)
	assert.True(t, split.Conversions)
	assert.True(t, split.Impressions)
	assert.True(t, split.Likes)
	assert.Equal(t, f.user.GenderID, split.GenderID)
	assert.NotEqual(t, prior.DimDateID, split.DimDateID)

	// The next click the same day lands on the new row, not another split.
	next, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)
	assert.Equal(t, split.ID, next.ID)
	assert.Equal(t, "2", next.Clicks)

	var stored domain.FactAdMetricsDaily
	require.NoError(t, f.db.Where("id = ?", prior.ID).First(&stored).Error)
	assert.Equal(t, "1", stored.Clicks)
	assert.Equal(t, "2024-05-01", stored.Day)

	assert.Equal(t, int64(2), f.countFacts(t))
}

func TestRecordConversion_InvalidClicks(t *testing.T) {
	for _, bad := range []string{"abc", "-3"} {
		t.Run(bad, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			row, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
			require.NoError(t, err)
			require.NoError(t, f.db.Model(&domain.FactAdMetricsDaily{}).Where("id = ?", row.ID).Update("clicks", bad).Error)

			_, err = f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
			assert.ErrorIs(t, err, ErrInvalidClicks)
			assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

			var stored domain.FactAdMetricsDaily
			require.NoError(t, f.db.Where("id = ?", row.ID).First(&stored).Error)
			assert.Equal(t, bad, stored.Clicks)
			assert.False(t, stored.Conversions)
		})
	}
}

func TestRecordConversion_DateMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)
	require.NoError(t, f.db.Where("id = ?", row.DimDateID).Delete(&domain.DimDate{}).Error)

	_, err = f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	assert.ErrorIs(t, err, ErrDateNotFound)
}

func TestRecordConversion_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(false))
	require.NoError(t, err)

	const calls = 20
	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var rows []domain.FactAdMetricsDaily
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, fmt.Sprint(calls), rows[0].Clicks)
	assert.True(t, rows[0].Conversions)
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestRecordConversion_ConcurrentDaySplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)
	f.now = f.now.AddDate(0, 0, 1)

	const calls = 8
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var today []domain.FactAdMetricsDaily
	require.NoError(t, f.db.Where("day = ?", "2024-05-02").Find(&today).Error)
	require.Len(t, today, 1)
	assert.Equal(t, fmt.Sprint(calls), today[0].Clicks)
	assert.Equal(t, int64(2), f.countFacts(t))
}

func TestList_FilterPrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.ToggleLike(ctx, f.caller(), f.ad.ID, boolPtr(true))
	require.NoError(t, err)
	c, err := f.svc.ToggleLike(ctx, Caller{}, f.ad.ID, nil)
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 1)
	b, err := f.svc.RecordConversion(ctx, f.caller(), f.ad.ID)
	require.NoError(t, err)

	ids := func(rows []domain.FactAdMetricsDaily) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	day1, err := f.svc.List(ctx, ListFilter{StartDate: "2024-05-01", EndDate: "2024-05-01"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, c.ID}, ids(day1))

	fromDay2, err := f.svc.List(ctx, ListFilter{StartDate: "2024-05-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(fromDay2))

	// Date range beats the dimension filter.
	dateWins, err := f.svc.List(ctx, ListFilter{StartDate: "2024-05-02", RegionID: a.RegionID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(dateWins))

	// Region beats platform.
	regionWins, err := f.svc.List(ctx, ListFilter{RegionID: a.RegionID, PlatformID: b.PlatformID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(regionWins))

	// Platform beats gender.
	platformWins, err := f.svc.List(ctx, ListFilter{PlatformID: b.PlatformID, GenderID: a.GenderID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(platformWins))

	byGender, err := f.svc.List(ctx, ListFilter{GenderID: f.user.GenderID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(byGender))

	none, err := f.svc.List(ctx, ListFilter{DeviceTypeID: "nope"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestList_RejectsBadDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, ListFilter{StartDate: "01-05-2024"})
	assert.ErrorIs(t, err, ErrInvalidStartDate)

	_, err = f.svc.List(ctx, ListFilter{EndDate: "2024-13-01"})
	assert.ErrorIs(t, err, ErrInvalidEndDate)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
