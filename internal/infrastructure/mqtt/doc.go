// Package mqtt provides MQTT client connectivity for choreod.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// choreod uses MQTT as the command bus between the choreography service
// and the robot base. The performer publishes velocity and light-ring
// commands to the rover command topics; consumers (the base driver, a
// simulator, a dashboard) announce themselves on retained presence
// topics, which choreod counts for its readiness gate.
//
//	choreod → MQTT Broker → robot base driver / simulator
//
// # Security Considerations
//
//   - TLS is recommended off-robot (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish a velocity command
//	client.Publish(mqtt.Topics{}.CmdVel(), payload, 1, false)
//
//	// Watch consumer presence
//	client.Subscribe(mqtt.Topics{}.AllPresence(), 1, handler)
package mqtt
