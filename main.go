// Package main is the entry point for the hmi-core refrigeration alert daemon.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/coldwatch/hmi-core/daemon/cmd"
	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// Version is the application version, set at build time via ldflags.
var Version = "dev"

var cli struct {
	LogsDir  string `default:"/var/log" help:"directory to store logs"`
	Port     int    `default:"8043" env:"PORT" help:"HTTP command/event surface port"`
	Debug    bool   `default:"false" help:"enable debug mode with stdout logging"`
	LogLevel string `default:"info" env:"LOG_LEVEL" help:"log level: debug, info, warning, error"`

	CORSOrigin string `default:"*" env:"CORS_ORIGIN" help:"Access-Control-Allow-Origin value"`

	MQTTServer          string `default:"" env:"MQTT_SERVER" help:"MQTT broker hostname or IP"`
	MQTTPort            int    `default:"8883" env:"MQTT_PORT" help:"MQTT broker port"`
	MQTTUseSecureClient bool   `default:"true" env:"MQTT_USE_SECURE_CLIENT" help:"use TLS for the MQTT connection"`
	MQTTClientID        string `default:"hmi-cli" env:"MQTT_CLIENT_ID" help:"MQTT client ID"`
	MQTTUsername        string `default:"" env:"MQTT_USERNAME" help:"MQTT username"`
	MQTTPassword        string `default:"" env:"MQTT_PASSWORD" help:"MQTT password"`

	MuteDuration  int  `default:"600" env:"MUTE_DURATION" help:"mute auto-expiry window in seconds"`
	BuzzerEnabled bool `default:"true" env:"BUZZER_ENABLED" help:"drive the GPIO buzzer while an alert is active and unmuted"`

	SupabaseURL     string `default:"" env:"SUPABASE_URL" help:"database realtime feed URL (empty disables the database source loop)"`
	SupabaseAnonKey string `default:"" env:"SUPABASE_ANON_KEY" help:"database realtime feed key"`

	Boot cmd.Boot `cmd:"" default:"1" help:"start the alert core"`
}

// cleanupOldLogs removes old rotated log files from previous versions.
// lumberjack's MaxBackups only prevents new backups, it does not clean up
// existing ones from before the setting was changed.
func cleanupOldLogs(logsDir, baseName string) {
	pattern := filepath.Join(logsDir, baseName+"-*.log")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	for _, f := range files {
		_ = os.Remove(f)
	}
}

func main() {
	ctx := kong.Parse(&cli)

	configPath := domain.ResolveConfigPath()
	fileCfg, err := domain.LoadConfigFile(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: failed to load config file: %v\n", err)
	} else if fileCfg == nil {
		if werr := domain.WriteDefaultConfigFile(configPath); werr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "WARNING: failed to write default config file: %v\n", werr)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "wrote default config file to %s\n", configPath)
		}
	}
	applyFileConfig(fileCfg)

	switch strings.ToLower(cli.LogLevel) {
	case "debug":
		logger.SetLevel(logger.LevelDebug)
	case "info":
		logger.SetLevel(logger.LevelInfo)
	case "warning", "warn":
		logger.SetLevel(logger.LevelWarning)
	case "error":
		logger.SetLevel(logger.LevelError)
	default:
		logger.SetLevel(logger.LevelInfo)
	}

	if cli.Debug {
		log.SetOutput(os.Stdout)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		logger.SetLevel(logger.LevelDebug)
		log.Println("Debug mode enabled - logging to stdout")
	} else {
		cleanupOldLogs(cli.LogsDir, "hmi-core")

		fileLogger := &lumberjack.Logger{
			Filename:   filepath.Join(cli.LogsDir, "hmi-core.log"),
			MaxSize:    5,     // 5 MB max file size
			MaxBackups: 1,     // Keep only 1 backup file
			MaxAge:     1,     // Delete backups older than 1 day
			Compress:   false, // No compression
		}
		multiWriter := io.MultiWriter(fileLogger, os.Stdout)
		log.SetOutput(multiWriter)
	}

	log.Printf("Starting hmi-core v%s (log level: %s)", Version, cli.LogLevel)

	if watcher, werr := domain.WatchConfigDrift(configPath); werr != nil {
		log.Printf("WARNING: config drift watcher unavailable: %v", werr)
	} else {
		defer func() { _ = watcher.Close() }()
	}

	appCtx := &domain.Context{
		Hub: domain.NewEventBus(1024),
		Config: domain.Config{
			Version:    Version,
			Port:       cli.Port,
			CORSOrigin: cli.CORSOrigin,
			MQTT: dto.MQTTConfig{
				Server:          cli.MQTTServer,
				Port:            cli.MQTTPort,
				UseSecureClient: cli.MQTTUseSecureClient,
				ClientID:        cli.MQTTClientID,
				Username:        cli.MQTTUsername,
				Password:        cli.MQTTPassword,
			},
			DB: dto.DBConfig{
				URL:     cli.SupabaseURL,
				AnonKey: cli.SupabaseAnonKey,
			},
			MuteDurationSeconds: cli.MuteDuration,
			BuzzerEnabled:       cli.BuzzerEnabled,
			BuzzerGPIOPin:       constants.DefaultBuzzerGPIOPin,
		},
	}

	err = ctx.Run(appCtx)
	ctx.FatalIfErrorf(err)
}

// applyFileConfig merges config file values into the CLI struct. Precedence
// is env var > config file > struct default. kong already resolves flag >
// env > default during Parse, so a field that differs from its struct
// default, or whose env var is actually set in the environment, was
// explicitly chosen by the operator and must not be clobbered by the file;
// the file only fills in fields still sitting at their untouched default.
func applyFileConfig(cfg *domain.FileConfig) {
	if cfg == nil {
		return
	}

	setInt := func(dst *int, def int, env string, src *int) {
		if src == nil || *dst != def || envSet(env) {
			return
		}
		*dst = *src
	}
	setStr := func(dst *string, def string, env string, src *string) {
		if src == nil || *dst != def || envSet(env) {
			return
		}
		*dst = *src
	}
	setBool := func(dst *bool, def bool, env string, src *bool) {
		if src == nil || *dst != def || envSet(env) {
			return
		}
		*dst = *src
	}

	setInt(&cli.Port, 8043, "PORT", cfg.Port)
	setInt(&cli.MuteDuration, 600, "MUTE_DURATION", cfg.MuteDurationSeconds)
	setBool(&cli.BuzzerEnabled, true, "BUZZER_ENABLED", cfg.BuzzerEnabled)
	setStr(&cli.SupabaseURL, "", "SUPABASE_URL", cfg.SupabaseURL)
	setStr(&cli.SupabaseAnonKey, "", "SUPABASE_ANON_KEY", cfg.SupabaseAnonKey)

	if m := cfg.MQTT; m != nil {
		setStr(&cli.MQTTServer, "", "MQTT_SERVER", m.Server)
		setInt(&cli.MQTTPort, 8883, "MQTT_PORT", m.Port)
		setBool(&cli.MQTTUseSecureClient, true, "MQTT_USE_SECURE_CLIENT", m.UseSecureClient)
		setStr(&cli.MQTTClientID, "hmi-cli", "MQTT_CLIENT_ID", m.ClientID)
		setStr(&cli.MQTTUsername, "", "MQTT_USERNAME", m.Username)
		setStr(&cli.MQTTPassword, "", "MQTT_PASSWORD", m.Password)
	}
}

// envSet reports whether the named environment variable is present, so
// applyFileConfig can tell an explicit (even default-valued) env override
// apart from a field that was simply never touched.
func envSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}
