package event

import (
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Delivery-state metadata keys. Delivery state rides on the queue message,
// not inside the immutable event envelope, so a requeued message carries a
// fresh attempt count while the event bytes stay untouched.
const (
	// KeyAttempt is the current delivery attempt (1-based).
	KeyAttempt = "cf_attempt"

	// KeyMaxAttempts caps delivery attempts before dead-lettering.
	KeyMaxAttempts = "cf_max_attempts"

	// KeyDeadLetter marks a message routed to the dead letter topic.
	KeyDeadLetter = "cf_dead_letter"

	// KeyOriginalTopic stores the source topic of a dead-lettered message.
	KeyOriginalTopic = "cf_original_topic"

	// KeyErrorMessage stores the last handler error of a dead-lettered message.
	KeyErrorMessage = "cf_error_message"

	// KeyEnqueuedAt is the publish timestamp, used for backlog lag.
	KeyEnqueuedAt = "cf_enqueued_at"

	// KeyDelayMs asks delay-capable backends to hold the message.
	KeyDelayMs = "cf_delay_ms"

	// KeyCorrelationID correlates every message touched by one request.
	KeyCorrelationID = "cf_correlation_id"

	// KeyEventKind mirrors the envelope type for cheap metadata-only reads.
	KeyEventKind = "cf_event_kind"

	// KeyDeliveryID mirrors the sender's delivery identifier.
	KeyDeliveryID = "cf_delivery_id"

	// KeyHandler names the handler currently processing the message.
	KeyHandler = "cf_handler"

	// KeyTopic names the topic the message was consumed from.
	KeyTopic = "cf_topic"

	// KeyQueueDepth is an optional backend-reported queue depth.
	KeyQueueDepth = "cf_queue_depth"
)

// DefaultMaxAttempts bounds redelivery when the publisher does not set its
// own cap.
const DefaultMaxAttempts = 3

func metaInt(md message.Metadata, key string) int {
	v, err := strconv.Atoi(md.Get(key))
	if err != nil {
		return 0
	}
	return v
}

// Attempt returns the current delivery attempt, 0 when unset.
func Attempt(md message.Metadata) int {
	return metaInt(md, KeyAttempt)
}

// SetAttempt records the current delivery attempt.
func SetAttempt(md message.Metadata, n int) {
	md.Set(KeyAttempt, strconv.Itoa(n))
}

// IncrementAttempt advances the attempt counter and returns the new value.
func IncrementAttempt(md message.Metadata) int {
	n := Attempt(md) + 1
	SetAttempt(md, n)
	return n
}

// MaxAttempts returns the configured cap, falling back to DefaultMaxAttempts.
func MaxAttempts(md message.Metadata) int {
	if v := metaInt(md, KeyMaxAttempts); v > 0 {
		return v
	}
	return DefaultMaxAttempts
}

// SetMaxAttempts records the delivery cap on the message.
func SetMaxAttempts(md message.Metadata, n int) {
	md.Set(KeyMaxAttempts, strconv.Itoa(n))
}

// ExceedsMaxAttempts reports whether the message has used up its deliveries.
func ExceedsMaxAttempts(md message.Metadata) bool {
	return Attempt(md) >= MaxAttempts(md)
}

// IsDeadLetter reports whether the message was routed to the dead letter
// topic.
func IsDeadLetter(md message.Metadata) bool {
	return md.Get(KeyDeadLetter) == "true"
}

// MarkDeadLetter annotates a message headed for the dead letter topic with
// its origin and the error that killed it.
func MarkDeadLetter(md message.Metadata, originalTopic string, cause error) {
	md.Set(KeyDeadLetter, "true")
	md.Set(KeyOriginalTopic, originalTopic)
	if cause != nil {
		md.Set(KeyErrorMessage, cause.Error())
	}
}

// OriginalTopic returns the pre-DLQ topic of a dead-lettered message.
func OriginalTopic(md message.Metadata) string {
	return md.Get(KeyOriginalTopic)
}

// ErrorMessage returns the recorded handler error of a dead-lettered message.
func ErrorMessage(md message.Metadata) string {
	return md.Get(KeyErrorMessage)
}

// Delay returns the requested hold duration, 0 when unset.
func Delay(md message.Metadata) time.Duration {
	ms, err := strconv.ParseInt(md.Get(KeyDelayMs), 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// SetDelay asks delay-capable backends to hold the message for d.
func SetDelay(md message.Metadata, d time.Duration) {
	md.Set(KeyDelayMs, strconv.FormatInt(d.Milliseconds(), 10))
}

// EnqueuedAt returns the recorded publish time, zero when unset or invalid.
func EnqueuedAt(md message.Metadata) time.Time {
	t, err := ParseTime(md.Get(KeyEnqueuedAt))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// SetEnqueuedAt records the publish time.
func SetEnqueuedAt(md message.Metadata, t time.Time) {
	md.Set(KeyEnqueuedAt, FormatTime(t))
}

// CorrelationID returns the message correlation identifier.
func CorrelationID(md message.Metadata) string {
	return md.Get(KeyCorrelationID)
}

// SetCorrelationID records the message correlation identifier.
func SetCorrelationID(md message.Metadata, id string) {
	md.Set(KeyCorrelationID, id)
}

// DeadLetterTopic returns the dead letter topic for a source topic.
// Convention: <topic>.dead
func DeadLetterTopic(topic string) string {
	return topic + ".dead"
}
