// Package transport adapts the modular queue-backend registry for the
// internal runtime. Backend implementations live in
// github.com/drblury/clickflow/transport/*.
package transport

import (
	pubtransport "github.com/drblury/clickflow/transport"
)

// Capabilities is an alias for the modular transport Capabilities.
type Capabilities = pubtransport.Capabilities

// CapabilitiesProvider is an alias for the modular transport CapabilitiesProvider.
type CapabilitiesProvider = pubtransport.CapabilitiesProvider

// Predefined capability sets, aliased from the modular transport package.
var (
	ChannelCapabilities       = pubtransport.ChannelCapabilities
	KafkaCapabilities         = pubtransport.KafkaCapabilities
	RabbitMQCapabilities      = pubtransport.RabbitMQCapabilities
	NATSCapabilities          = pubtransport.NATSCapabilities
	NATSJetStreamCapabilities = pubtransport.NATSJetStreamCapabilities
	RedisCapabilities         = pubtransport.RedisCapabilities
	AWSCapabilities           = pubtransport.AWSCapabilities
	SQLiteCapabilities        = pubtransport.SQLiteCapabilities
	PostgresCapabilities      = pubtransport.PostgresCapabilities
	HTTPCapabilities          = pubtransport.HTTPCapabilities
	IOCapabilities            = pubtransport.IOCapabilities
)

// GetCapabilities returns the capabilities for a backend by name.
func GetCapabilities(backendName string) Capabilities {
	return pubtransport.GetCapabilities(backendName)
}
