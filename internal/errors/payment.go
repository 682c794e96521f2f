package errors

var (
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "amount must be positive with at most two decimal places",
	}
	ErrUnknownTier = &DomainError{
		Kind:    KindValidation,
		Code:    "UNKNOWN_TIER",
		Message: "unknown pricing tier",
	}
	ErrUnsupportedCurrency = &DomainError{
		Kind:    KindValidation,
		Code:    "UNSUPPORTED_CURRENCY",
		Message: "currency is not supported",
	}
	ErrInvalidPaymentRequest = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_PAYMENT_REQUEST",
		Message: "invalid payment request",
	}
	ErrMalformedPayload = &DomainError{
		Kind:    KindValidation,
		Code:    "MALFORMED_PAYLOAD",
		Message: "malformed webhook payload",
	}
	ErrInvalidSignature = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "INVALID_SIGNATURE",
		Message: "webhook signature mismatch",
	}
	ErrTransactionNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrTransactionNotSettled = &DomainError{
		Kind:    KindConflict,
		Code:    "TRANSACTION_NOT_SETTLED",
		Message: "transaction is not successful",
	}
	ErrAccountNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "payment account not found",
	}
	ErrAccountNotActive = &DomainError{
		Kind:    KindConflict,
		Code:    "ACCOUNT_NOT_ACTIVE",
		Message: "payment account is not active",
	}
	ErrInvalidAccountTransition = &DomainError{
		Kind:    KindConflict,
		Code:    "INVALID_ACCOUNT_TRANSITION",
		Message: "payment account cannot move to the requested status",
	}
)
