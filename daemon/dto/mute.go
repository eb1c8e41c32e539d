package dto

import "time"

// MuteStatus is the payload returned by get_mute_status / toggle_alerts_mute
// and pushed on every alerts://mute_changed event.
type MuteStatus struct {
	Muted     bool       `json:"muted"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
