package app

// Trigger names the event that asked for a reconcile.
type Trigger int

const (
	// TriggerStartup is posted once after the startup delay.
	TriggerStartup Trigger = iota
	// TriggerDevices follows a pointing-device arrival or removal.
	TriggerDevices
	// TriggerDisplays follows a display topology change.
	TriggerDisplays
	// TriggerConfig follows an assignment or settings update.
	TriggerConfig
)

// String returns the trigger name used in logs.
func (t Trigger) String() string {
	switch t {
	case TriggerStartup:
		return "startup"
	case TriggerDevices:
		return "devices"
	case TriggerDisplays:
		return "displays"
	case TriggerConfig:
		return "config"
	default:
		return "unknown"
	}
}
