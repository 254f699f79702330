// Package presence tracks which command consumers are connected.
//
// MQTT has no native subscriber-count introspection, so choreod relies
// on a presence convention instead: every consumer of the rover command
// topics publishes a retained announcement to rover/presence/{client_id}
// when it connects, listing the channels it subscribes to, and clears it
// (via LWT or an explicit offline message) when it goes away.
//
// The Tracker subscribes to rover/presence/+ and maintains a live count
// of online consumers per channel. The performer's readiness gate polls
// these counts before starting a performance.
//
// # Announcement payload
//
//	{
//	  "client_id": "base-driver",
//	  "status": "online",
//	  "channels": ["cmd_vel", "cmd_lightring"]
//	}
//
// An empty retained payload or status "offline" removes the consumer.
package presence
