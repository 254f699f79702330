package mqtt

import "fmt"

// Topic prefixes for the rover command bus.
//
// All choreod topics live under a single "rover" root:
//
//	rover/cmd/{channel}        — outbound robot commands
//	rover/presence/{client}    — retained consumer presence announcements
//	rover/event/{type}         — performance lifecycle events
//	rover/system/status        — choreod online/offline status (LWT)
const (
	// TopicPrefixRover is the root of all rover topics.
	TopicPrefixRover = "rover"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "rover/system"
)

// Outbound command channel names. These appear both in command topics
// and in the channel lists of consumer presence announcements.
const (
	// ChannelVelocity carries drive commands (linear/angular speed).
	ChannelVelocity = "cmd_vel"

	// ChannelLightRing carries light ring commands.
	ChannelLightRing = "cmd_lightring"
)

// Topics provides builders for rover MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// CmdVel returns the velocity command topic.
//
// Example: rover/cmd/cmd_vel
func (Topics) CmdVel() string {
	return fmt.Sprintf("%s/cmd/%s", TopicPrefixRover, ChannelVelocity)
}

// CmdLightRing returns the light ring command topic.
//
// Example: rover/cmd/cmd_lightring
func (Topics) CmdLightRing() string {
	return fmt.Sprintf("%s/cmd/%s", TopicPrefixRover, ChannelLightRing)
}

// Cmd returns the command topic for an arbitrary channel name.
func (Topics) Cmd(channel string) string {
	return fmt.Sprintf("%s/cmd/%s", TopicPrefixRover, channel)
}

// Presence returns the presence topic for a specific consumer.
//
// Consumers publish a retained announcement here on connect and a
// retained offline (or empty) payload on disconnect, typically via LWT.
//
// Example: rover/presence/base-driver
func (Topics) Presence(clientID string) string {
	return fmt.Sprintf("%s/presence/%s", TopicPrefixRover, clientID)
}

// AllPresence returns a pattern matching every consumer presence topic.
//
// Pattern: rover/presence/+
func (Topics) AllPresence() string {
	return fmt.Sprintf("%s/presence/+", TopicPrefixRover)
}

// Event returns the topic for performance lifecycle events.
//
// Example: rover/event/performance_started
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixRover, eventType)
}

// SystemStatus returns choreod's own status topic (online/offline, LWT).
//
// Example: rover/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
