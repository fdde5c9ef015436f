package checkout

import (
	"errors"
	"fmt"
)

const (
	MessageCartEmpty        = "Your cart is empty. Please add items before proceeding."
	MessageSessionRequired  = "Session expired, please log in again."
	MessageNotSignedIn      = "Please log in to continue."
	MessageSubmissionFailed = "Failed to save checkout data."
	MessageSuccess          = "Payment successful!"
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrSessionRequired = errors.New("session required")
	ErrNotSignedIn     = errors.New("not signed in")
)

// SubmissionError means the sink rejected the order. The cart is left as it was.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit order: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Message maps a checkout error to the text shown to the shopper.
func Message(err error) string {
	var (
		validationErr *ValidationError
		submissionErr *SubmissionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Fields[0].Message
	case errors.Is(err, ErrCartEmpty):
		return MessageCartEmpty
	case errors.Is(err, ErrSessionRequired):
		return MessageSessionRequired
	case errors.Is(err, ErrNotSignedIn):
		return MessageNotSignedIn
	case errors.As(err, &submissionErr):
		return MessageSubmissionFailed
	default:
		return err.Error()
	}
}
