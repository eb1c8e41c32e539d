// Package mqttsource implements the MQTT-subscribed alarm source loop: it
// connects to the configured broker, subscribes to the alarm topic, and
// maps incoming RPC-shaped envelopes onto alert store upserts/removals.
package mqttsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// AlarmTopic is the broker-side alarm feed. Its name is part of the
// broker contract, not configurable.
const AlarmTopic = "alarms/events"

// Store is the subset of the alert store the MQTT loop needs.
type Store interface {
	Upsert(dto.Alert) bool
	Remove(string) bool
}

// Client runs the MQTT source loop: connect, subscribe, dispatch, and
// reconnect with exponential backoff on any failure.
type Client struct {
	config *dto.MQTTConfig
	store  Store

	client    pahomqtt.Client
	connected atomic.Bool
	lastError atomic.Value // string
}

// NewClient creates an MQTT source loop client.
func NewClient(config *dto.MQTTConfig, store Store) *Client {
	c := &Client{config: config, store: store}
	c.lastError.Store("")
	return c
}

// IsConnected reports the current broker connection state, for the
// is_mqtt_connected command.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Run blocks, maintaining the broker connection until ctx is canceled. On
// any connection or subscription failure it waits out the backoff window
// (interruptible within ~2s of a shutdown signal) and retries.
func (c *Client) Run(ctx context.Context) {
	backoff := constants.BackoffInitial

	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.connectAndSubscribe(ctx); err != nil {
			c.lastError.Store(err.Error())
			logger.Warning("mqttsource: %v, retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = constants.BackoffInitial

		// Block until the context is canceled or the connection drops (or
		// the subscription fails); the connection-lost and on-connect
		// handlers flip c.connected so the loop waits out the backoff and
		// reconnects.
		waitDisconnected(ctx, c)
		c.disconnect()
		if ctx.Err() != nil {
			return
		}
		logger.Warning("mqttsource: connection lost or subscription failed, retrying in %s", backoff)
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

func waitDisconnected(ctx context.Context, c *Client) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.connected.Load() {
				return
			}
		}
	}
}

func (c *Client) connectAndSubscribe(ctx context.Context) error {
	opts := pahomqtt.NewClientOptions()
	scheme := "tcp"
	if c.config.UseSecureClient {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, c.config.Server, c.config.Port))
	opts.SetClientID(c.config.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
	}
	if c.config.Password != "" {
		opts.SetPassword(c.config.Password)
	}

	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		token := client.Subscribe(AlarmTopic, 1, c.onMessage)
		token.Wait()
		if token.Error() != nil {
			logger.Warning("mqttsource: subscribe failed: %v", token.Error())
			c.connected.Store(false)
			return
		}
		c.connected.Store(true)
		c.lastError.Store("")
		logger.Info("mqttsource: connected and subscribed to %s", AlarmTopic)
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.connected.Store(false)
		c.lastError.Store(err.Error())
		logger.Warning("mqttsource: connection lost: %v", err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		logger.Debug("mqttsource: attempting to reconnect")
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()

	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if token.Error() != nil {
			return fmt.Errorf("connecting to broker: %w", token.Error())
		}
	}

	c.client = client
	return nil
}

func (c *Client) disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.connected.Store(false)
}

// onMessage handles a single incoming alarm envelope. Any parse failure
// drops the message and logs, per the error handling policy.
func (c *Client) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	var envelope dto.MQTTAlarmEnvelope
	if err := json.Unmarshal(msg.Payload(), &envelope); err != nil {
		logger.Warning("mqttsource: dropping unparseable message: %v", err)
		return
	}

	alert, remove, ok := mapEnvelope(envelope)
	if !ok {
		return
	}

	if remove {
		c.store.Remove(alert.ID)
		return
	}
	c.store.Upsert(alert)
}

// mapEnvelope applies the type/status mapping from the broker contract.
// Returns ok=false for envelopes that carry no actionable transition.
func mapEnvelope(e dto.MQTTAlarmEnvelope) (alert dto.Alert, remove bool, ok bool) {
	id := "mqtt:" + fmt.Sprint(e.AlarmID)

	switch e.Status {
	case "CLEARED_UNACK", "CLEARED_ACK":
		return dto.Alert{ID: id}, true, true
	case "ACTIVE_UNACK", "ACTIVE_ACK":
		// fall through to type mapping below
	default:
		return dto.Alert{}, false, false
	}

	now := time.Now().Format(constants.AlertTimeLayout)

	switch e.Type {
	case "Temperature out of range":
		alertType, description := classifyTemperature(e.Description)
		return dto.Alert{
			ID:          id,
			DateTime:    now,
			AlertType:   alertType,
			Device:      e.Originator,
			Description: description,
		}, false, true
	case "Inactivity TimeOut":
		description := e.Description
		if description == "" {
			description = "Sin conexión"
		}
		return dto.Alert{
			ID:          id,
			DateTime:    now,
			AlertType:   dto.AlertTypeDisconnect,
			Device:      e.Originator,
			Description: description,
		}, false, true
	default:
		return dto.Alert{}, false, false
	}
}

// temperatureMidpoint is the fixed midpoint of the nominal 2-8 °C band
// used to refine the tempUp/tempDown default when description embeds a
// numeric reading.
const temperatureMidpoint = 5.0

// classifyTemperature defaults to tempUp, refining to tempDown when a
// numeric reading embedded in description falls below the band midpoint.
func classifyTemperature(description string) (dto.AlertType, string) {
	if v, ok := extractFirstFloat(description); ok && v < temperatureMidpoint {
		if description == "" {
			description = "Temp. baja"
		}
		return dto.AlertTypeTempDown, description
	}
	if description == "" {
		description = "Temp. alta"
	}
	return dto.AlertTypeTempUp, description
}

// extractFirstFloat finds the first signed decimal number in s.
func extractFirstFloat(s string) (float64, bool) {
	start := -1
	for i, r := range s {
		if (r >= '0' && r <= '9') || (r == '-' && start == -1) {
			if start == -1 {
				start = i
			}
		} else if start != -1 {
			break
		}
	}
	if start == -1 {
		return 0, false
	}
	end := start + 1
	for end < len(s) {
		r := s[end]
		if (r >= '0' && r <= '9') || r == '.' {
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(strings.TrimRight(s[start:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > constants.BackoffMax {
		return constants.BackoffMax
	}
	return next
}
