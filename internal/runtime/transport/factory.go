package transport

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/clickflow/internal/runtime/config"
	pubtransport "github.com/drblury/clickflow/transport"

	// Import all backend packages to register them.
	_ "github.com/drblury/clickflow/transport/aws"
	_ "github.com/drblury/clickflow/transport/channel"
	_ "github.com/drblury/clickflow/transport/http"
	_ "github.com/drblury/clickflow/transport/io"
	_ "github.com/drblury/clickflow/transport/jetstream"
	_ "github.com/drblury/clickflow/transport/kafka"
	_ "github.com/drblury/clickflow/transport/nats"
	_ "github.com/drblury/clickflow/transport/postgres"
	_ "github.com/drblury/clickflow/transport/rabbitmq"
	_ "github.com/drblury/clickflow/transport/redis"
	_ "github.com/drblury/clickflow/transport/sqlite"
)

// Transport combines a publisher and subscriber pair produced by a factory.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Factory abstracts how the service initialises its queue backend.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
}

// DefaultFactory returns the built-in factory backed by the modular
// transport registry.
func DefaultFactory() Factory {
	return defaultFactory{}
}

type defaultFactory struct{}

func (defaultFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, fmt.Errorf("config is required")
	}

	t, err := pubtransport.Build(ctx, conf, logger)
	if err != nil {
		return Transport{}, err
	}

	return Transport{
		Publisher:  t.Publisher,
		Subscriber: t.Subscriber,
	}, nil
}
