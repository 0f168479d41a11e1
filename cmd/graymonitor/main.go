// Gray Logic Monitor - Live KNX Telegram Monitor
//
// This is the main entry point for the Gray Logic Monitor application.
// The monitor attaches to a Gray Logic Core installation and provides:
//   - A live, filterable, sortable view of KNX bus traffic
//   - Pause/reload semantics with an authoritative snapshot merge
//   - A passive catalogue of observed bus addresses
//   - Optional throughput telemetry to InfluxDB
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-monitor/migrations"

	"github.com/nerrad567/gray-logic-monitor/internal/api"
	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-monitor/internal/monitor"
	"github.com/nerrad567/gray-logic-monitor/internal/recorder"
	"github.com/nerrad567/gray-logic-monitor/internal/transport"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
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
	log.Info("starting Gray Logic Monitor",
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Start the observed-address recorder
	addressRecorder := recorder.New(db.DB, log)
	if startErr := addressRecorder.Start(); startErr != nil {
		return fmt.Errorf("starting address recorder: %w", startErr)
	}
	defer func() {
		log.Info("stopping address recorder")
		addressRecorder.Stop()
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log)

	// Set up MQTT logging callbacks. Subscriptions are restored by the
	// client on reconnect, so a broker blip is not a monitor-level fault.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the core transport (snapshot REST + live MQTT feed)
	coreTransport := transport.New(cfg, mqttClient, log)
	log.Info("core transport ready",
		"snapshot_url", coreTransport.SnapshotURL(),
		"telegram_topic", cfg.Core.TelegramTopic,
	)

	// WebSocket hub is created before the controller so change
	// notifications can be wired into it.
	hub := api.NewHub(cfg.WebSocket, log)

	// Create the monitor controller
	opts := monitor.Options{
		Config: monitor.Config{
			MinBuffer:    cfg.Monitor.MinBuffer,
			GrowthFactor: cfg.Monitor.GrowthFactor,
		},
		Transport: coreTransport,
		Location:  monitor.NewMemoryLocation(""),
		Logger:    log,
		Recorder:  addressRecorder,
		OnChange: func() {
			hub.Broadcast(api.ChannelMonitorUpdated, nil)
		},
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}
	controller := monitor.NewController(opts)
	defer controller.Connection().Unsubscribe()

	// Load the snapshot and subscribe to the live feed. A setup failure is
	// not fatal: the monitor starts in read-only mode with the error
	// surfaced in its status, and the user retries explicitly.
	if setupErr := controller.Setup(ctx); setupErr != nil {
		log.Warn("monitor setup incomplete, core unreachable", "error", setupErr)
	} else {
		log.Info("monitor connected to core feed",
			"project_loaded", controller.IsProjectLoaded(),
		)
	}

	// Track the core's own presence so the UI can tell "no traffic" from
	// "core gone". Reconnection stays user-triggered.
	if subErr := subscribeCoreStatus(mqttClient, controller, log); subErr != nil {
		log.Warn("core status subscription failed", "error", subErr)
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Controller:  controller,
		Addresses:   addressRecorder,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Feed unsubscribe
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Address recorder
	// 6. Database

	log.Info("Gray Logic Monitor stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYMONITOR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYMONITOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// subscribeCoreStatus watches the core's retained status topic. An offline
// announcement (including the core's LWT) is surfaced as a transport error;
// the user decides when to retry.
func subscribeCoreStatus(mqttClient *mqtt.Client, controller *monitor.Controller, log *logging.Logger) error {
	topic := mqtt.Topics{}.CoreStatus()
	return mqttClient.Subscribe(topic, 1, func(_ string, payload []byte) error {
		status := string(payload)
		switch status {
		case "online":
			log.Info("core online")
		case "offline":
			log.Warn("core offline")
			controller.Connection().ReportTransportError("core offline")
		default:
			log.Debug("unrecognised core status", "payload", status)
		}
		return nil
	})
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
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Core reachability is reflected in the monitor's connection status
	// rather than failing startup; the monitor is useful read-only.

	return nil
}
