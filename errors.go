package guardian

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before Build completed.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrBuilderReused is returned when Build is called twice on the same Builder.
	ErrBuilderReused = errors.New("builder already used")
	// ErrTokenMalformed is returned when a token passed to a blacklist operation cannot be decoded.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrBlacklistUnavailable is returned when the blacklist backend is unreachable.
	ErrBlacklistUnavailable = errors.New("blacklist backend unavailable")
	// ErrLimiterUnavailable is returned when the distributed limiter backend is unreachable.
	ErrLimiterUnavailable = errors.New("rate limit backend unavailable")
	// ErrAlertNotFound is returned when an alert id does not exist.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrEventNotFound is returned when a security event id does not exist.
	ErrEventNotFound = errors.New("security event not found")
	// ErrEventTypeRequired is returned when LogEvent is called without an event type.
	ErrEventTypeRequired = errors.New("event type required")
	// ErrUnknownCategory is returned when a rate limit category has no configured policy grid.
	ErrUnknownCategory = errors.New("unknown rate limit category")
	// ErrTOTPSecretInvalid is returned when a TOTP secret is empty or not decodable.
	ErrTOTPSecretInvalid = errors.New("invalid totp secret")
)
