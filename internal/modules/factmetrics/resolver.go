package factmetrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"admetrics/internal/config"
	"admetrics/internal/domain"
	"admetrics/internal/probe"
	"admetrics/internal/repository"

	"gorm.io/gorm"
)

const timeOfDayLayout = "15:04"

// Policy says which probe-sourced dimensions are deduplicated. Gender and
// age group are always deduplicated; dates and guests never are.
type Policy struct {
	Region   bool
	Platform bool
	Device   bool
}

// PolicyFrom builds a Policy from the DIMENSION_DEDUP set.
func PolicyFrom(dedup map[string]bool) Policy {
	return Policy{
		Region:   dedup[config.DimRegion],
		Platform: dedup[config.DimPlatform],
		Device:   dedup[config.DimDevice],
	}
}

// Dimensions are the per-event dimension rows a new fact row references.
type Dimensions struct {
	Date     *domain.DimDate
	Region   *domain.DimRegion
	Platform *domain.DimPlatform
	Device   *domain.DimDeviceType
}

// Day is the calendar day the fact row is filed under.
func (d *Dimensions) Day() string { return d.Date.DateCreated }

type Resolver struct {
	dims   *repository.DimensionRepository
	policy Policy
}

func NewResolver(dims *repository.DimensionRepository, policy Policy) *Resolver {
	return &Resolver{dims: dims, policy: policy}
}

// WithTx returns a resolver whose writes join tx.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	return &Resolver{dims: r.dims.WithTx(tx), policy: r.policy}
}

func (r *Resolver) Policy() Policy { return r.policy }

// Gender returns the gender dimension for value, lowercased, "unknown" when empty.
func (r *Resolver) Gender(ctx context.Context, value string) (*domain.DimGender, error) {
	return r.dims.Gender(ctx, NormalizeGender(value))
}

// AgeGroup returns the age-group dimension for a YYYY-MM-DD birth date.
func (r *Resolver) AgeGroup(ctx context.Context, dateOfBirth string, now time.Time) (*domain.DimAgeGroup, error) {
	dob, err := time.ParseInLocation(domain.DayLayout, dateOfBirth, now.Location())
	if err != nil {
		return nil, err
	}
	return r.dims.AgeGroup(ctx, strconv.Itoa(AgeInYears(dob, now)))
}

// Environment stamps a new date row and resolves region, platform and device
// from snap according to the policy. Empty snapshot fields are stored as-is.
func (r *Resolver) Environment(ctx context.Context, snap probe.Snapshot, now time.Time) (*Dimensions, error) {
	date := &domain.DimDate{
		DateCreated: now.Format(domain.DayLayout),
		TimeCreated: now.Format(timeOfDayLayout),
	}
	if err := r.dims.Date(ctx, date); err != nil {
		return nil, err
	}

	region := &domain.DimRegion{
		RegionName:  snap.Region,
		CityName:    snap.City,
		CountryName: snap.Country,
	}
	if err := r.dims.Region(ctx, region, r.policy.Region); err != nil {
		return nil, err
	}

	platform := &domain.DimPlatform{
		PlatformName:     snap.Platform,
		PlatformHostname: snap.Hostname,
	}
	if err := r.dims.Platform(ctx, platform, r.policy.Platform); err != nil {
		return nil, err
	}

	device := &domain.DimDeviceType{DeviceName: snap.DeviceName()}
	if err := r.dims.Device(ctx, device, r.policy.Device); err != nil {
		return nil, err
	}

	return &Dimensions{Date: date, Region: region, Platform: platform, Device: device}, nil
}

// Guest records a new anonymous identity.
func (r *Resolver) Guest(ctx context.Context, snap probe.Snapshot) (*domain.GuestUser, error) {
	g := &domain.GuestUser{
		IPAddress: snap.IP,
		GuestName: snap.GuestName,
		Location:  snap.Location,
	}
	if err := r.dims.Guest(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Resolver) DateByID(ctx context.Context, id string) (*domain.DimDate, error) {
	return r.dims.DateByID(ctx, id)
}

func NormalizeGender(value string) string {
	g := strings.ToLower(strings.TrimSpace(value))
	if g == "" {
		return string(domain.GenderUnknown)
	}
	return g
}

// AgeInYears counts completed years between dob and now.
func AgeInYears(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
