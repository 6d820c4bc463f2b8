// Package transports imports all built-in transports for auto-registration.
// Import this package to have all transports registered with the default registry.
package transports

import (
	// Import all transports for side-effect registration
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
