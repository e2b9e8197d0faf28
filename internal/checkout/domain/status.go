package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle      CheckoutStatus = "IDLE"
	CheckoutStatusVerifying CheckoutStatus = "VERIFYING"
	CheckoutStatusSuccess   CheckoutStatus = "SUCCESS"
	CheckoutStatusFailure   CheckoutStatus = "FAILURE"
	CheckoutStatusCancelled CheckoutStatus = "CANCELLED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSuccess || s == CheckoutStatusFailure || s == CheckoutStatusCancelled
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CanTransitionTo guards the callback state machine: IDLE may verify, cancel
// or fail fast; VERIFYING resolves to success or failure; terminal states
// never move again.
func CanTransitionTo(from, to CheckoutStatus) bool {
	switch from {
	case CheckoutStatusIdle:
		return to == CheckoutStatusVerifying || to == CheckoutStatusCancelled || to == CheckoutStatusFailure
	case CheckoutStatusVerifying:
		return to == CheckoutStatusSuccess || to == CheckoutStatusFailure
	default:
		return false
	}
}

// ErrorCode is the short machine-readable failure kind surfaced alongside a
// human message. Never a raw stack trace.
type ErrorCode string

const (
	// Callback reached without a payment reference; user must restart checkout.
	ErrCodeNoReference ErrorCode = "NO_REFERENCE"
	// Verification succeeded at the transport level but the data fails the
	// success criterion; user is told to contact support.
	ErrCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"
	// Transport error or non-2xx while verifying.
	ErrCodePaymentStatusFetch ErrorCode = "PAYMENT_STATUS_FETCH"
	// Verification call exceeded the client-side deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)
