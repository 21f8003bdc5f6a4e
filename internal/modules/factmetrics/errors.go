package factmetrics

import "admetrics/internal/pkg/apperr"

var (
	ErrLoginRequired     = apperr.New(apperr.NotAuthenticated, "Please Login First...!")
	ErrUnknownUser       = apperr.New(apperr.NotAuthenticated, "Token not Valid...!")
	ErrAdIDRequired      = apperr.New(apperr.Validation, "advertise_id is required")
	ErrAdNotFound        = apperr.New(apperr.NotFound, "Advertisement not found")
	ErrMetricsNotFound   = apperr.New(apperr.NotFound, "Ad metrics not found")
	ErrDateNotFound      = apperr.New(apperr.NotFound, "Date not found")
	ErrInvalidClicks     = apperr.New(apperr.InvalidState, "Stored click counter is not a non-negative integer")
	ErrInvalidStartDate  = apperr.New(apperr.Validation, "start_date must be in YYYY-MM-DD format")
	ErrInvalidEndDate    = apperr.New(apperr.Validation, "end_date must be in YYYY-MM-DD format")
	ErrIdentityAmbiguous = apperr.New(apperr.InvalidState, "Fact row must reference exactly one identity")
)
