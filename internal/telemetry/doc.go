// Package telemetry writes command telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// Time-series storage for:
//   - Choreography action events (move / lights / finished)
//   - Latched command state after each fold
//
// # Usage
//
//	client, err := telemetry.Connect(cfg.InfluxDB, cfg.Robot.ID)
//	if err != nil {
//	    // telemetry is optional: log and continue
//	}
//	defer client.Close()
//
//	client.WriteActionEvent("move")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes, so the
// tick loop never waits on the network.
//
// # Error Handling
//
// Write errors are delivered asynchronously via SetOnError. Connection
// and health check errors are returned directly.
package telemetry
