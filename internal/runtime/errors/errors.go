package errors

import sterrors "errors"

var (
	ErrServiceRequired      = sterrors.New("clickflow: event service is required")
	ErrHandlerRequired      = sterrors.New("clickflow: handler function is required")
	ErrConsumeQueueRequired = sterrors.New("clickflow: consume queue is required")
	ErrHandlerNameRequired  = sterrors.New("clickflow: handler name is required")
	ErrPublisherRequired    = sterrors.New("clickflow: publisher is required")
	ErrTopicRequired        = sterrors.New("clickflow: topic is required")
	ErrConfigRequired       = sterrors.New("clickflow: configuration is required")
	ErrLoggerRequired       = sterrors.New("clickflow: logger is required")
	ErrEventPayloadRequired = sterrors.New("clickflow: event payload is required")
	ErrRegistryRequired     = sterrors.New("clickflow: handler registry is required")
)

// ConfigValidationError wraps the underlying validation failure so callers can
// distinguish bad configuration from runtime faults.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "clickflow: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err in a ConfigValidationError. Returns nil
// when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
