// Atrium Sim - Sensor Bus Event Simulator
//
// Publishes synthetic entry events onto the MQTT sensor bus, in the
// same payload shape real door sensors use. Useful for exercising the
// ingestion pipeline and dashboard without physical hardware.
//
// Usage:
//
//	atrium-sim -subject UID:04A1B2C3 -count 5 -interval 2s
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/atrium-access/atrium-core/internal/infrastructure/config"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-access/atrium-core/internal/infrastructure/mqtt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to configuration file")
		subject    = flag.String("subject", "UID:04A1B2C3", "subject credential to publish")
		sensorID   = flag.String("sensor", "", "sensor id; empty publishes on the configured entry topic")
		count      = flag.Int("count", 1, "number of events to publish")
		interval   = flag.Duration("interval", time.Second, "delay between events")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, "sim")

	// The simulator is its own bus citizen; reusing the service's client
	// id would kick the real service off the broker.
	cfg.MQTT.Broker.ClientID = cfg.MQTT.Broker.ClientID + "-sim"

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer client.Close() //nolint:errcheck // Best-effort disconnect on exit

	topic := cfg.MQTT.EntryTopic
	if *sensorID != "" {
		topic = mqtt.Topics{}.SensorEntry(*sensorID)
	}

	for i := 0; i < *count; i++ {
		if i > 0 {
			time.Sleep(*interval)
		}

		payload, err := json.Marshal(map[string]any{
			"subject":   *subject,
			"topic":     topic,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("encoding event payload: %w", err)
		}
		if err := client.PublishJSON(topic, payload); err != nil {
			return fmt.Errorf("publishing event %d: %w", i+1, err)
		}
		log.Info("entry event published", "topic", topic, "subject", *subject, "n", i+1)
	}

	return nil
}
