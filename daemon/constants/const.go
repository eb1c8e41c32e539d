// Package constants provides shared constants and default values for the
// alert core: backoff schedule, fault budgets, buzzer timing, and the
// WebSocket/HTTP surface tuning knobs.
package constants

import "time"

const (
	// DefaultMQTTPort is the broker port used when the config omits one.
	DefaultMQTTPort = 8883
	// DefaultMQTTClientID is the client identifier used when the config omits one.
	DefaultMQTTClientID = "hmi-cli"
	// DefaultMuteDurationSeconds is the mute auto-expiry window.
	DefaultMuteDurationSeconds = 600
	// DefaultCommandPort is the HTTP command/event surface listen port.
	DefaultCommandPort = 8043

	// BackoffInitial is the starting reconnect delay for both source loops.
	BackoffInitial = 5 * time.Second
	// BackoffMax is the reconnect delay ceiling.
	BackoffMax = 60 * time.Second
	// ShutdownGracePeriod bounds how long a loop may take to observe shutdown.
	ShutdownGracePeriod = 2 * time.Second

	// BuzzerFaultBudget is the number of consecutive GPIO failures tolerated
	// before the buzzer controller latches disabled for the process lifetime.
	BuzzerFaultBudget = 5
	// BuzzerTickInterval is the 1 Hz period of the buzzer controller loop.
	BuzzerTickInterval = 1 * time.Second
	// DefaultBuzzerGPIOPin is the GPIO line number driving the annunciator.
	DefaultBuzzerGPIOPin = 17

	// MuteTickInterval is the period at which the mute controller checks for expiry.
	MuteTickInterval = 1 * time.Second

	// NetworkProbeTarget is the fixed reachability target (DNS over TCP).
	NetworkProbeTarget = "8.8.8.8:53"
	// NetworkProbeTimeout bounds check_internet_connection's network round trip.
	NetworkProbeTimeout = 2 * time.Second

	// DBEventTimeout is the per-event read deadline on the database source loop.
	DBEventTimeout = 60 * time.Second

	// WSPingInterval is the WebSocket ping interval in seconds.
	WSPingInterval = 30
	// WSBufferSize is the WebSocket per-client send buffer size.
	WSBufferSize = 256

	// ConfigEnvVar is the environment variable that overrides the config file path.
	ConfigEnvVar = "CONFIG_PATH"
	// ConfigAppDir is the application directory name under the platform config dir.
	ConfigAppDir = "hmi-core"
	// ConfigFileName is the config file's name inside ConfigAppDir.
	ConfigFileName = "config.yml"

	// AlertTimeLayout is the DD/MM/YYYY HH:MM:SS layout every alert
	// timestamp is formatted with, matching the graphical shell's display
	// convention.
	AlertTimeLayout = "02/01/2006 15:04:05"
)

// DeviceLabels maps the six database alert slots (0-indexed) to their
// human-readable origin label, per the fixed wiring of the monitored row.
var DeviceLabels = [6]string{
	"Bodega - microbiología refri 2",
	"Bodega - microbiología refri 1",
	"Bodega - química refri 1",
	"Bodega - banco de sangre",
	"Bodega - química refri 2",
	"Bodega - Inmunología refri 1",
}
