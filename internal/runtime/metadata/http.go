package metadata

import (
	"net/http"
	"strings"
)

// FromHTTPHeader flattens an HTTP header into metadata. Keys are lowercased
// and repeated values are joined with ", ", matching how webhook senders see
// their own headers echoed back.
func FromHTTPHeader(h http.Header) Metadata {
	if len(h) == 0 {
		return Metadata{}
	}

	out := make(Metadata, len(h))
	for k, values := range h {
		out[strings.ToLower(k)] = strings.Join(values, ", ")
	}
	return out
}
