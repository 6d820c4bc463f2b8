// Package event defines the normalized ClickUp webhook event: the closed
// kind enumeration, the Event model with its wire codec, payload
// normalization, and the delivery-state metadata carried on queue messages.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drblury/clickflow/internal/runtime/jsoncodec"
	"github.com/drblury/clickflow/internal/runtime/metadata"
)

// Event is one normalized webhook notification. Events are immutable once
// constructed; use Clone when a handler needs a scratch copy.
type Event struct {
	// Kind is the validated event type.
	Kind Kind
	// Body is the full decoded payload, including the discriminator field.
	Body map[string]any
	// Raw preserves the exact bytes received at the ingress.
	Raw json.RawMessage
	// Headers are the flattened inbound HTTP headers.
	Headers metadata.Metadata
	// ReceivedAt is the UTC timestamp assigned at ingestion.
	ReceivedAt time.Time
	// DeliveryID identifies one delivery from the sender. Taken from the
	// X-Request-Id header when present, generated otherwise.
	DeliveryID string
}

// wireEvent is the JSON envelope carried on the queue.
type wireEvent struct {
	Type       string            `json:"type"`
	Body       map[string]any    `json:"body"`
	Raw        json.RawMessage   `json:"raw,omitempty"`
	Headers    metadata.Metadata `json:"headers,omitempty"`
	ReceivedAt string            `json:"received_at"`
	DeliveryID string            `json:"delivery_id,omitempty"`
}

// Validate checks that the event can be published.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("clickflow: event kind %q is not a known kind", string(e.Kind))
	}
	if e.Body == nil {
		return fmt.Errorf("clickflow: event body is required")
	}
	return nil
}

// Encode renders the event into its wire envelope.
func (e Event) Encode() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return jsoncodec.Marshal(wireEvent{
		Type:       string(e.Kind),
		Body:       e.Body,
		Raw:        e.Raw,
		Headers:    e.Headers,
		ReceivedAt: FormatTime(e.ReceivedAt),
		DeliveryID: e.DeliveryID,
	})
}

// Decode parses a wire envelope back into an Event. Envelopes whose type is
// outside the kind enumeration fail; they never reach handlers.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := jsoncodec.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("clickflow: decode event envelope: %w", err)
	}

	kind, err := ParseKind(w.Type)
	if err != nil {
		return Event{}, err
	}

	var receivedAt time.Time
	if w.ReceivedAt != "" {
		receivedAt, err = ParseTime(w.ReceivedAt)
		if err != nil {
			return Event{}, fmt.Errorf("clickflow: decode event received_at: %w", err)
		}
		receivedAt = receivedAt.UTC()
	}

	raw := w.Raw
	if len(raw) == 0 && w.Body != nil {
		// Older envelopes omit raw; rebuild it from the body.
		raw, err = jsoncodec.Marshal(w.Body)
		if err != nil {
			return Event{}, fmt.Errorf("clickflow: rebuild raw payload: %w", err)
		}
	}

	headers := w.Headers
	if headers == nil {
		headers = metadata.Metadata{}
	}

	return Event{
		Kind:       kind,
		Body:       w.Body,
		Raw:        raw,
		Headers:    headers,
		ReceivedAt: receivedAt,
		DeliveryID: w.DeliveryID,
	}, nil
}

// Clone returns a deep copy of the event. Body is copied recursively so the
// copy can be mutated without touching the original.
func (e Event) Clone() Event {
	out := e
	out.Headers = e.Headers.Clone()
	if e.Raw != nil {
		out.Raw = append(json.RawMessage(nil), e.Raw...)
	}
	if e.Body != nil {
		out.Body = copyJSONObject(e.Body)
	}
	return out
}

func copyJSONObject(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyJSONValue(v)
	}
	return out
}

func copyJSONValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyJSONObject(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyJSONValue(item)
		}
		return out
	default:
		// Decoded JSON leaves are immutable scalars.
		return v
	}
}
