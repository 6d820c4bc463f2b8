// Package channel provides the in-process Go channel backend. It is the
// default backend and the one to use for tests and single-process setups
// where the ingress and the consumer share a process.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/clickflow/transport"
)

// TransportName is the name used to register this backend.
const TransportName = "channel"

// AliasName is an alternative registration name for this backend.
const AliasName = "local"

// Factory allows overriding the channel creation for testing. The returned
// publisher and subscriber must share state for messages to flow.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

func init() {
	Register()
}

// Register adds the channel backend to the default registry under both its
// primary name and the "local" alias.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
	transport.RegisterWithCapabilities(AliasName, Build, transport.ChannelCapabilities)
}

// Build creates a new in-process channel transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	pub, sub := Factory(gochannel.Config{}, logger)
	return transport.Transport{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}

// Capabilities returns the capabilities of this backend.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
