//go:build integration

package sql

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/resourcetest"
)

// Shared PostgreSQL container for all integration tests in this package.
var sharedPostgres *PostgresConfig

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("itools_test"),
		tcpostgres.WithUsername("itools_test"),
		tcpostgres.WithPassword("itools_test"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	sharedPostgres = &PostgresConfig{
		Host:     host,
		Port:     port.Int(),
		Database: "itools_test",
		User:     "itools_test",
		Password: "itools_test",
	}

	exitCode := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(exitCode)
}

func TestPostgresConformance(t *testing.T) {
	resourcetest.RunConformanceSuite(t, func(t *testing.T) resource.Store {
		s, err := New(&Config{Type: DatabaseTypePostgres, Postgres: *sharedPostgres})
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		// Every test starts from an empty tree.
		if err := s.DB().Where("id <> ?", rootID).Delete(&Node{}).Error; err != nil {
			t.Fatalf("reset failed: %v", err)
		}
		return s
	})
}
