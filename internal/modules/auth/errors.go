package auth

import "admetrics/internal/pkg/apperr"

var (
	ErrInvalidCredentials = apperr.New(apperr.NotAuthenticated, "Incorrect email or password")
	ErrEmailAlreadyExists = apperr.New(apperr.Conflict, "Email Already Used...!")
	ErrInvalidDateOfBirth = apperr.New(apperr.Validation, "Date must be in YYYY-MM-DD format")
	ErrInvalidGender      = apperr.New(apperr.Validation, "Gender must be one of [male female other unknown]")
	ErrInvalidRequest     = apperr.New(apperr.Validation, "Invalid request body")
)

// validationError picks the sentinel for a failed-field map.
func validationError(fields map[string]string) *apperr.Error {
	switch {
	case fields["dateofbirth"] != "":
		return ErrInvalidDateOfBirth
	case fields["gender"] != "":
		return ErrInvalidGender
	default:
		return ErrInvalidRequest
	}
}
