package event

import (
	"errors"
	"fmt"
	"time"
)

// Handler return errors controlling the message lifecycle after dispatch.

var (
	// ErrRetry signals that the delivery should be retried with backoff.
	ErrRetry = errors.New("clickflow: retry message")

	// ErrDeadLetter signals that the message should go straight to the dead
	// letter topic without further attempts.
	ErrDeadLetter = errors.New("clickflow: send to dead letter queue")

	// ErrSkip signals that the message should be acknowledged without
	// counting as processed. Use it for intentional ignores such as
	// duplicates.
	ErrSkip = errors.New("clickflow: skip message")

	// ErrUnprocessable signals a permanently invalid message. It is
	// dead-lettered immediately.
	ErrUnprocessable = errors.New("clickflow: unprocessable message")
)

// RetryAfterError asks for a retry after a specific delay.
type RetryAfterError struct {
	Delay time.Duration
	Cause error
}

// ErrRetryAfter builds a RetryAfterError with the given delay.
//
//	return event.ErrRetryAfter(time.Minute, fmt.Errorf("rate limited"))
func ErrRetryAfter(delay time.Duration, cause error) *RetryAfterError {
	return &RetryAfterError{Delay: delay, Cause: cause}
}

func (e *RetryAfterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("clickflow: retry after %v: %v", e.Delay, e.Cause)
	}
	return fmt.Sprintf("clickflow: retry after %v", e.Delay)
}

func (e *RetryAfterError) Unwrap() error {
	return e.Cause
}

func (e *RetryAfterError) Is(target error) bool {
	if target == ErrRetry {
		return true
	}
	_, ok := target.(*RetryAfterError)
	return ok
}

// DeadLetterError sends a message to the dead letter topic with a reason.
type DeadLetterError struct {
	Reason string
	Cause  error
}

// ErrDeadLetterWithReason builds a DeadLetterError.
//
//	return event.ErrDeadLetterWithReason("task already archived", nil)
func ErrDeadLetterWithReason(reason string, cause error) *DeadLetterError {
	return &DeadLetterError{Reason: reason, Cause: cause}
}

func (e *DeadLetterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("clickflow: dead letter (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("clickflow: dead letter (%s)", e.Reason)
}

func (e *DeadLetterError) Unwrap() error {
	return e.Cause
}

func (e *DeadLetterError) Is(target error) bool {
	if target == ErrDeadLetter {
		return true
	}
	_, ok := target.(*DeadLetterError)
	return ok
}

// HandlerResult is the post-dispatch action for a message.
type HandlerResult int

const (
	// ResultAck acknowledges the message.
	ResultAck HandlerResult = iota

	// ResultRetry requeues the message for another attempt.
	ResultRetry

	// ResultRetryAfter requeues the message after a delay.
	ResultRetryAfter

	// ResultDeadLetter routes the message to the dead letter topic.
	ResultDeadLetter

	// ResultSkip acknowledges the message without processing it.
	ResultSkip
)

// ClassifyError maps a handler error to its lifecycle action. Unknown errors
// default to retry. When err joins multiple control errors (several handlers
// failed on one delivery) the checks below rank them: retry-after wins over
// dead-letter, which wins over skip, so a dead-letter request from one
// handler is deferred while another still asks for redelivery.
func ClassifyError(err error) (HandlerResult, time.Duration) {
	if err == nil {
		return ResultAck, 0
	}

	var retryAfter *RetryAfterError
	if errors.As(err, &retryAfter) {
		return ResultRetryAfter, retryAfter.Delay
	}

	if errors.Is(err, ErrDeadLetter) {
		return ResultDeadLetter, 0
	}
	if errors.Is(err, ErrSkip) {
		return ResultSkip, 0
	}
	if errors.Is(err, ErrUnprocessable) {
		return ResultDeadLetter, 0
	}
	if errors.Is(err, ErrRetry) {
		return ResultRetry, 0
	}

	return ResultRetry, 0
}

// IsRetryable reports whether err asks for another delivery attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	result, _ := ClassifyError(err)
	return result == ResultRetry || result == ResultRetryAfter
}

// ShouldDeadLetter reports whether err routes the message to the dead letter
// topic.
func ShouldDeadLetter(err error) bool {
	if err == nil {
		return false
	}
	result, _ := ClassifyError(err)
	return result == ResultDeadLetter
}
