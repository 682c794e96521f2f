package errors

var (
	ErrUnsupportedCountry = &DomainError{
		Kind:    KindValidation,
		Code:    "UNSUPPORTED_COUNTRY",
		Message: "country is not supported",
	}
	ErrInvalidStepData = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_STEP_DATA",
		Message: "missing or invalid fields",
	}
	ErrUnknownStep = &DomainError{
		Kind:    KindValidation,
		Code:    "UNKNOWN_STEP",
		Message: "step is not part of this onboarding session",
	}
	ErrStepOutOfOrder = &DomainError{
		Kind:    KindValidation,
		Code:    "STEP_OUT_OF_ORDER",
		Message: "required steps must be completed in order",
	}
	ErrSessionNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "SESSION_NOT_FOUND",
		Message: "onboarding session not found",
	}
	ErrSessionNotActive = &DomainError{
		Kind:    KindConflict,
		Code:    "SESSION_NOT_ACTIVE",
		Message: "onboarding session is no longer in progress",
	}
	ErrSessionExpired = &DomainError{
		Kind:    KindConflict,
		Code:    "SESSION_EXPIRED",
		Message: "onboarding session has expired",
	}
	ErrAlreadyOnboarded = &DomainError{
		Kind:    KindConflict,
		Code:    "ALREADY_ONBOARDED",
		Message: "business already has a payment account",
	}
)
