package e2e_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/xcono/sqlfilter/e2e"
	"github.com/xcono/sqlfilter/e2e/containers"
)

var running containers.Set

// TestMain starts one container per engine for the whole package.
// Containers are skipped with -short.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	var err error
	running, err = containers.StartAll(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to setup containers: %v", err)
	}

	code := m.Run()

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := running.Terminate(cleanupCtx); err != nil {
		log.Printf("Warning: Failed to cleanup containers: %v", err)
	}
	cleanupCancel()

	os.Exit(code)
}

// DefaultTestConfig returns the test configuration using containers
func DefaultTestConfig(t *testing.T) *e2e.TestConfig {
	if running == nil {
		t.Skip("containers are not running")
	}

	return &e2e.TestConfig{
		ConfigFile:  "../etc/shop.yaml",
		Service:     "shop",
		MySQLDSN:    running["mysql"].DSN,
		PostgresDSN: running["postgres"].DSN,
	}
}
