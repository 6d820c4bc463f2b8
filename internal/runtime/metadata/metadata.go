// Package metadata holds the string map carried alongside every event: the
// flattened inbound HTTP headers on the event itself, and the delivery state
// annotations on the queue message.
package metadata

import "strings"

// Metadata is a string-keyed header map. The zero value is usable for reads.
type Metadata map[string]string

func (m Metadata) grow(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	out := make(Metadata, size)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.grow(0)
}

// With returns a copy of the metadata with one additional entry.
func (m Metadata) With(key, value string) Metadata {
	out := m.grow(1)
	out[key] = value
	return out
}

// WithAll returns a copy of the metadata merged with the supplied entries.
func (m Metadata) WithAll(entries Metadata) Metadata {
	out := m.grow(len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out
}

// Lookup finds a value by key, falling back to a case-insensitive scan.
// Header names arrive in whatever casing the sender used.
func (m Metadata) Lookup(key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// New constructs a Metadata map from alternating key/value pairs.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}
