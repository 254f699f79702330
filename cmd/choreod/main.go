// choreod - choreography daemon for the iRobot Create 3
//
// choreod plays a timed dance script over the rover's MQTT command bus:
// it waits for the command consumers to come online, then walks the
// script and keeps the latest velocity and light ring commands
// republished at a fixed tick until shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/roverworks/choreod/migrations"

	"github.com/roverworks/choreod/internal/choreo"
	"github.com/roverworks/choreod/internal/history"
	"github.com/roverworks/choreod/internal/infrastructure/config"
	"github.com/roverworks/choreod/internal/infrastructure/database"
	"github.com/roverworks/choreod/internal/infrastructure/logging"
	"github.com/roverworks/choreod/internal/infrastructure/mqtt"
	"github.com/roverworks/choreod/internal/performer"
	"github.com/roverworks/choreod/internal/presence"
	"github.com/roverworks/choreod/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting choreod",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database and run migrations
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// History recorder: async writes behind the tick loop
	repo := history.NewRepository(db.DB)
	recorder := history.NewRecorder(repo, log)
	defer func() {
		log.Info("draining history queue")
		recorder.Close()
	}()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *telemetry.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = telemetry.Connect(cfg.InfluxDB, cfg.Robot.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Track command consumers via retained presence announcements
	qos := byte(cfg.MQTT.QoS) // #nosec G115 -- validated to 0..2 by config
	tracker := presence.NewTracker(log)
	if err := tracker.Start(mqttClient, qos); err != nil {
		return fmt.Errorf("starting presence tracker: %w", err)
	}
	log.Info("presence tracker started", "topic", mqtt.Topics{}.AllPresence())

	// Load the choreography
	script, scriptName, err := loadScript(cfg.Performance.ScriptPath)
	if err != nil {
		return fmt.Errorf("loading script: %w", err)
	}
	log.Info("script loaded",
		"name", scriptName,
		"steps", script.Len(),
		"duration_s", script.Duration(),
	)

	// Wire the performer
	perf := performer.New(script, scriptName, performer.Config{
		QoS:                     qos,
		WaitLogInterval:         cfg.WaitLogInterval(),
		MinVelocitySubscribers:  cfg.Performance.Readiness.MinVelocitySubscribers,
		MinLightRingSubscribers: cfg.Performance.Readiness.MinLightRingSubscribers,
	}, mqttClient, tracker)
	perf.SetLogger(log)
	perf.SetRecorder(recorder)
	if influxClient != nil {
		perf.SetTelemetry(influxClient)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, entering tick loop",
		"tick", cfg.TickPeriod(),
	)

	// The tick loop owns the performer until shutdown.
	ticker := time.NewTicker(cfg.TickPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			log.Info("choreod stopped")
			return nil
		case now := <-ticker.C:
			perf.Tick(now)
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses CHOREOD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CHOREOD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadScript loads the configured choreography, falling back to the
// built-in routine when no path is configured.
func loadScript(path string) (*choreo.Script, string, error) {
	if path == "" {
		return choreo.DefaultScript(), "default", nil
	}
	return choreo.LoadScript(path)
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *telemetry.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
