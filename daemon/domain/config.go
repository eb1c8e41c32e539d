// Package domain provides the core runtime context and configuration
// structures for the alert core.
package domain

import "github.com/coldwatch/hmi-core/daemon/dto"

// Config is the immutable snapshot of recognized options, loaded once at
// startup from environment, config file, and built-in defaults (in that
// order of precedence).
type Config struct {
	Version    string `json:"version"`
	Port       int    `json:"port"`
	CORSOrigin string `json:"cors_origin"`

	MQTT dto.MQTTConfig `json:"mqtt"`
	DB   dto.DBConfig   `json:"db"`

	MuteDurationSeconds int  `json:"mute_duration_seconds"`
	BuzzerEnabled       bool `json:"buzzer_enabled"`
	BuzzerGPIOPin       int  `json:"buzzer_gpio_pin"`
}

// DBConfigured reports whether enough database credentials are present to
// start the database source loop.
func (c Config) DBConfigured() bool {
	return c.DB.URL != "" && c.DB.AnonKey != ""
}
