package helpers

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresStartupTimeout is the default timeout for Postgres to start.
	DefaultPostgresStartupTimeout = 30 * time.Second
	// PostgresPassword is the password the test database starts with.
	PostgresPassword = "changeme"
	// PostgresDatabase is the database name the container creates.
	PostgresDatabase = "seocrawl_test"
)

// PostgresContainer manages a test Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
}

// StartPostgres starts a Postgres container for testing.
// It returns a container instance that should be stopped with Stop().
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_PASSWORD": PostgresPassword,
				"POSTGRES_DB":       PostgresDatabase,
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").
				WithStartupTimeout(DefaultPostgresStartupTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:%s@%s/%s?sslmode=disable",
		PostgresPassword, net.JoinHostPort(host, mappedPort.Port()), PostgresDatabase)

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
	}, nil
}

// Stop stops and removes the Postgres container.
func (p *PostgresContainer) Stop(ctx context.Context) error {
	if p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}
