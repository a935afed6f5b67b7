// Package mqtt provides MQTT client connectivity for Atrium Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Entry-event subscription for the ingestion pipeline
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Atrium uses MQTT as the sensor bus: door sensors (RFID readers,
// face cameras) publish entry events to a configured topic, and Core
// subscribes to feed its ingestion pipeline. The broker decouples
// Core from sensor firmware.
//
//	Door Sensors → MQTT Broker → Atrium Core
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(cfg.MQTT.EntryTopic, 1,
//	    func(topic string, payload []byte) error {
//	        listener.Enqueue(topic, payload)
//	        return nil
//	    })
package mqtt
