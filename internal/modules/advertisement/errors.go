package advertisement

import "admetrics/internal/pkg/apperr"

var (
	ErrTokenNotValid   = apperr.New(apperr.NotAuthenticated, "Token not Valid...!")
	ErrInvalidRunHours = apperr.New(apperr.Validation, "ad_run_hours must be a whole number of hours between 1 and 87600")
	ErrNotFound        = apperr.New(apperr.NotFound, "Advertisement not found")
)
