// Package performer drives a choreography over the rover command bus.
//
// The Performer is the latch loop: a tick handler invoked at a fixed
// period (50 ms by default) by a single goroutine. On every tick it
//
//  1. gates on readiness — a performance only starts once enough command
//     consumers are present on each outbound channel, with a debounced
//     "waiting" log while the gate is closed;
//  2. asks the choreo.Sequencer for newly due actions and folds them
//     into the latched output state (last velocity command, last light
//     ring command);
//  3. stamps and republishes both latched commands unconditionally, so
//     output is continuous between scripted actions and a late-joining
//     consumer immediately sees the current state.
//
// A Finished action resets both latches to neutral; the loop then keeps
// republishing neutral commands until shutdown. There is no terminal
// state.
//
// # Concurrency
//
// All Performer state is confined to the tick goroutine. The MQTT
// client, presence tracker, history recorder and telemetry sink it
// talks to are all safe for concurrent use on their side; the Performer
// itself must not be shared.
package performer
