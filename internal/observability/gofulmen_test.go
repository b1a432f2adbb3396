package observability_test

import (
	"testing"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/devpulse/devpulse/internal/observability"
)

func TestCLILoggerInitialization(t *testing.T) {
	observability.InitCLILogger("test-service", false)

	if observability.CLILogger == nil {
		t.Fatal("CLI logger should not be nil after initialization")
	}

	observability.CLILogger.Info("cli logger ready",
		zap.String("test", "value"))
}

func TestServerLoggerInitialization(t *testing.T) {
	observability.InitServerLogger("test-service", "info")

	if observability.ServerLogger == nil {
		t.Fatal("Server logger should not be nil after initialization")
	}

	observability.ServerLogger.Info("server logger ready",
		zap.String("component", "test"),
		zap.Int("request_id", 123))
}

func TestVerboseCLILogger(t *testing.T) {
	logger, err := logging.NewCLI("verbose-test")
	if err != nil {
		t.Fatalf("Failed to create verbose logger: %v", err)
	}

	logger.SetLevel(logging.DEBUG)
	logger.Debug("debug enabled",
		zap.String("mode", "verbose"))
}

func TestStructuredProfileWithCorrelation(t *testing.T) {
	config := &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: "INFO",
		Service:      "correlation-test",
		Environment:  "test",
		Middleware: []logging.MiddlewareConfig{
			{
				Name:    "correlation",
				Enabled: true,
				Order:   100,
				Config:  make(map[string]any),
			},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:   "console",
				Format: "json",
				Console: &logging.ConsoleSinkConfig{
					Stream:   "stderr",
					Colorize: false,
				},
			},
		},
	}

	logger, err := logging.New(config)
	if err != nil {
		t.Fatalf("Failed to create structured logger: %v", err)
	}

	logger.Info("correlation attached",
		zap.String("feature", "correlation"))
}
