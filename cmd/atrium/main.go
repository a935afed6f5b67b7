// Atrium Core - Room Access Control Service
//
// This is the main entry point for the Atrium Core application.
// Atrium manages who may enter which rooms:
//   - Identity directory (RFID tags, face recognition subjects)
//   - Per-room access control lists with a full audit trail
//   - Live entry notifications ingested from the MQTT sensor bus
//   - Administrative REST API and WebSocket feed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/atrium-access/atrium-core/migrations"

	"github.com/atrium-access/atrium-core/internal/access"
	"github.com/atrium-access/atrium-core/internal/api"
	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/infrastructure/config"
	"github.com/atrium-access/atrium-core/internal/infrastructure/database"
	"github.com/atrium-access/atrium-core/internal/infrastructure/influxdb"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-access/atrium-core/internal/infrastructure/mqtt"
	"github.com/atrium-access/atrium-core/internal/notify"
	"github.com/atrium-access/atrium-core/internal/room"
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

// listenerBuffer is the sensor event queue depth between the MQTT
// callback and the ingestion pipeline.
const listenerBuffer = 64

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Atrium Core",
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
	db, err := database.Open(ctx, database.Config{
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

	// Identity directory and room registry
	rfidRepo := identity.NewRFIDRepository(db.DB)
	faceRepo := identity.NewFaceRepository(db.DB)
	resolver := identity.NewResolver(rfidRepo, faceRepo)
	roomRepo := room.NewSQLiteRepository(db.DB)

	// Audit log; id sequence is seeded from existing rows
	auditLog, err := audit.NewLog(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("initialising audit log: %w", err)
	}

	// Access control engine
	engine := access.NewEngine(access.Config{
		Grants:               access.NewSQLiteGrantRepository(db.DB),
		Rooms:                roomRepo,
		Resolver:             resolver,
		Audit:                auditLog,
		Logger:               log,
		RequireKnownIdentity: cfg.Access.RequireKnownIdentity,
	})

	// Live notification feed
	feed := notify.NewFeed(cfg.Notifications.FeedCapacity)

	// Connect to InfluxDB (optional entry-event metrics)
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

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// API server; its WebSocket hub doubles as the pipeline's broadcaster
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Engine:   engine,
		Rooms:    roomRepo,
		RFID:     rfidRepo,
		Face:     faceRepo,
		Audit:    auditLog,
		Feed:     feed,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Notification ingestion pipeline
	var recorder notify.EntryRecorder
	if influxClient != nil {
		recorder = influxClient
	}
	pipeline := notify.NewPipeline(notify.PipelineConfig{
		Resolver:    resolver,
		Audit:       auditLog,
		Feed:        feed,
		Logger:      log,
		Broadcaster: server.Hub(),
		Recorder:    recorder,
	})
	listener := notify.NewListener(pipeline, listenerBuffer, log)
	go listener.Run(ctx)

	// Connect to the MQTT sensor bus
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
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Route sensor entry events into the pipeline
	qos := byte(cfg.MQTT.QoS) //nolint:gosec // QoS is validated to 0..2 at config load
	err = mqttClient.Subscribe(cfg.MQTT.EntryTopic, qos, func(topic string, payload []byte) error {
		listener.Enqueue(topic, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to entry topic %q: %w", cfg.MQTT.EntryTopic, err)
	}
	log.Info("listening for entry events", "topic", cfg.MQTT.EntryTopic, "qos", cfg.MQTT.QoS)

	// Give the API its bus handle for health reporting, then start it
	server.SetMQTT(mqttClient)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Wait for the listener to drain before the deferred closes run
	<-listener.Done()

	log.Info("Atrium Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ATRIUM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ATRIUM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			// Metrics are best-effort; a down InfluxDB must not refuse startup
			if !errors.Is(err, influxdb.ErrNotConnected) {
				return fmt.Errorf("influxdb: %w", err)
			}
		}
	}

	return nil
}
