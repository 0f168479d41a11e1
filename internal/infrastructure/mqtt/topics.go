package mqtt

import "fmt"

// Topic prefixes for the Gray Logic MQTT hierarchy the monitor participates
// in. The core publishes under graylogic/; the monitor publishes its own
// presence under graylogic/monitor/.
const (
	// TopicPrefix is the base of the shared Gray Logic topic tree.
	TopicPrefix = "graylogic"

	// TopicPrefixMonitor is the base for monitor-owned topics.
	TopicPrefixMonitor = "graylogic/monitor"
)

// Topics provides builders for the MQTT topics the monitor uses.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// KNXTelegram returns the core's live telegram feed topic. One JSON-encoded
// telegram per message; this is the monitor's primary input.
//
// Example: graylogic/knx/telegram
func (Topics) KNXTelegram() string {
	return fmt.Sprintf("%s/knx/telegram", TopicPrefix)
}

// CoreStatus returns the core's system status topic (retained online/offline
// announcements, including its LWT).
//
// Example: graylogic/system/status
func (Topics) CoreStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// MonitorStatus returns the monitor's own status topic. The monitor's LWT
// and graceful shutdown messages are published here, retained.
//
// Example: graylogic/monitor/status
func (Topics) MonitorStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixMonitor)
}
