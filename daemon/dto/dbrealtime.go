package dto

import "time"

// DBConfig is the configuration needed to open the realtime change feed.
// The database source loop is not started when URL or AnonKey is empty.
type DBConfig struct {
	URL     string `json:"url"`
	AnonKey string `json:"-"`
}

// DBStatus reports the realtime client's observable connection state, used
// to answer the is_supabase_connected command.
type DBStatus struct {
	Connected bool   `json:"connected"`
	LastError string `json:"last_error,omitempty"`
}

// DBChangeEvent is the subset of the upstream provider's change-event
// envelope the core reads: new.status, an array of six 0/1 integers, plus
// the event's wall-clock commit timestamp (UTC on the wire).
type DBChangeEvent struct {
	CommitTimestamp time.Time `json:"commit_timestamp"`
	New             struct {
		Status []int `json:"status"`
	} `json:"new"`
}

// DeviceStatusUpdate is the payload of a device://status_changed event,
// forwarded to the UI on every accepted database payload.
type DeviceStatusUpdate struct {
	Timestamp string `json:"timestamp"`
	Status    [6]int `json:"status"`
}
