package ride

import (
	"errors"

	"ryde/internal/maps"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("ride not found")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrConflict           = errors.New("ride state conflict")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPMissing         = errors.New("no outstanding otp")
	ErrTooManyAttempts    = errors.New("too many otp attempts")
	ErrStorageUnavailable = errors.New("ride storage unavailable")
	ErrRoutingUnavailable = maps.ErrRoutingUnavailable
)

// IsOTPFailure groups the verification errors callers must not tell apart.
func IsOTPFailure(err error) bool {
	return errors.Is(err, ErrInvalidOTP) || errors.Is(err, ErrOTPExpired) || errors.Is(err, ErrOTPMissing)
}
