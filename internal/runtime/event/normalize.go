package event

import (
	"fmt"
	"time"

	"github.com/drblury/clickflow/internal/runtime/ids"
	"github.com/drblury/clickflow/internal/runtime/jsoncodec"
	"github.com/drblury/clickflow/internal/runtime/metadata"
)

// deliveryIDHeader names the inbound header carrying the sender's delivery
// identifier.
const deliveryIDHeader = "x-request-id"

// NormalizationError reports a payload that cannot become an Event. The
// ingress maps it to a client error; nothing is published.
type NormalizationError struct {
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	return "clickflow: cannot normalize payload: " + e.Reason
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Normalize validates a raw webhook payload and builds the typed Event. It
// has no side effects: the same inputs always produce the same event, apart
// from the generated delivery ID fallback.
func Normalize(payload []byte, headers metadata.Metadata, receivedAt time.Time) (Event, error) {
	if len(payload) == 0 {
		return Event{}, &NormalizationError{Reason: "empty payload"}
	}

	var body map[string]any
	if err := jsonUnmarshalObject(payload, &body); err != nil {
		return Event{}, &NormalizationError{Reason: "payload is not a JSON object", Err: err}
	}

	rawKind, ok := body["event"]
	if !ok {
		return Event{}, &NormalizationError{Reason: `missing "event" field`}
	}
	name, ok := rawKind.(string)
	if !ok {
		return Event{}, &NormalizationError{Reason: `"event" field is not a string`}
	}

	kind, err := ParseKind(name)
	if err != nil {
		return Event{}, &NormalizationError{Reason: fmt.Sprintf("unknown event kind %q", name), Err: err}
	}

	if headers == nil {
		headers = metadata.Metadata{}
	}
	if receivedAt.IsZero() {
		receivedAt = Now()
	}

	deliveryID, ok := headers.Lookup(deliveryIDHeader)
	if !ok || deliveryID == "" {
		deliveryID = ids.CreateULID()
	}

	raw := make([]byte, len(payload))
	copy(raw, payload)

	return Event{
		Kind:       kind,
		Body:       body,
		Raw:        raw,
		Headers:    headers.Clone(),
		ReceivedAt: receivedAt.UTC(),
		DeliveryID: deliveryID,
	}, nil
}

// jsonUnmarshalObject decodes data into a JSON object, rejecting null and
// non-object documents.
func jsonUnmarshalObject(data []byte, out *map[string]any) error {
	if err := jsoncodec.Unmarshal(data, out); err != nil {
		return err
	}
	if *out == nil {
		return fmt.Errorf("document is null")
	}
	return nil
}
