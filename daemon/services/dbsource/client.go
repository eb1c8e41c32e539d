// Package dbsource implements the database realtime source loop: it opens
// a WebSocket subscription to a single row holding a six-slot device
// status vector, diffs each accepted payload against the last-seen
// vector, and drives alert store upserts/removals from the transitions.
package dbsource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// Store is the subset of the alert store the database loop needs.
type Store interface {
	Upsert(dto.Alert) bool
	Remove(string) bool
}

// deviceAlertID returns the store id for the given 0-indexed device slot.
func deviceAlertID(i int) string {
	return fmt.Sprintf("db:%d", i)
}

// gmtMinus6 is the fixed offset applied to convert UTC timestamps in
// change events, per the broker contract.
var gmtMinus6 = time.FixedZone("GMT-6", -6*60*60)

// Client runs the database source loop.
type Client struct {
	config dto.DBConfig
	store  Store
	hub    *domain.EventBus

	connected atomic.Bool
	lastError atomic.Value // string
	lastSeen  [6]int
	primed    bool // true once a first baseline payload has been observed
}

// NewClient creates a database source loop client. It does not check the
// configuration and always returns a client; the orchestrator checks
// DBConfigured before constructing one.
func NewClient(config dto.DBConfig, store Store, hub *domain.EventBus) *Client {
	c := &Client{config: config, store: store, hub: hub}
	c.lastError.Store("")
	return c
}

// IsConnected reports the current realtime connection state, for the
// is_supabase_connected command.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Run blocks, maintaining the realtime connection until ctx is canceled.
func (c *Client) Run(ctx context.Context) {
	backoff := constants.BackoffInitial

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.lastError.Store(err.Error())
			logger.Warning("dbsource: %v, retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		c.connected.Store(true)
		c.lastError.Store("")
		backoff = constants.BackoffInitial
		logger.Info("dbsource: realtime connection established")

		err = c.readLoop(ctx, conn)
		c.connected.Store(false)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.lastError.Store(err.Error())
			logger.Warning("dbsource: connection closed: %v, reconnecting", err)
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	header := map[string][]string{}
	if c.config.AnonKey != "" {
		header["Authorization"] = []string{"Bearer " + c.config.AnonKey}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.config.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dialing realtime endpoint: %w", err)
	}
	return conn, nil
}

// readLoop reads change events until the connection drops, ctx is
// canceled, or a single event read exceeds DBEventTimeout.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(constants.DBEventTimeout)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		c.handlePayload(payload)
	}
}

func (c *Client) handlePayload(payload []byte) {
	var event dto.DBChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warning("dbsource: dropping unparseable payload: %v", err)
		return
	}

	status, ok := validateStatus(event.New.Status)
	if !ok {
		logger.Warning("dbsource: dropping payload with invalid status shape: %v", event.New.Status)
		return
	}

	ts := event.CommitTimestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	localTS := ts.In(gmtMinus6)

	c.applyDiff(status, localTS)

	if c.hub != nil {
		domain.Publish(c.hub, constants.TopicDeviceStatusChanged, dto.DeviceStatusUpdate{
			Timestamp: localTS.Format(constants.AlertTimeLayout),
			Status:    status,
		})
	}
}

// validateStatus checks the payload is exactly six integers each in {0,1}.
func validateStatus(raw []int) ([6]int, bool) {
	var out [6]int
	if len(raw) != 6 {
		return out, false
	}
	for i, v := range raw {
		if v != 0 && v != 1 {
			return out, false
		}
		out[i] = v
	}
	return out, true
}

// applyDiff runs the 6-slot diff algorithm against lastSeen. The first
// payload observed after startup is treated as a pure baseline: it seeds
// lastSeen without emitting upserts for any slot that is already 1, since
// there is no way to distinguish "pre-existing alarm" from "just raised"
// on the first observation.
func (c *Client) applyDiff(status [6]int, ts time.Time) {
	if !c.primed {
		c.lastSeen = status
		c.primed = true
		return
	}

	for i := 0; i < 6; i++ {
		switch {
		case c.lastSeen[i] == 0 && status[i] == 1:
			c.store.Upsert(dto.Alert{
				ID:          deviceAlertID(i),
				DateTime:    ts.Format(constants.AlertTimeLayout),
				AlertType:   dto.AlertTypeTempUp,
				Device:      constants.DeviceLabels[i],
				Description: "Temperatura fuera de rango 2 - 8 °C",
			})
		case c.lastSeen[i] == 1 && status[i] == 0:
			c.store.Remove(deviceAlertID(i))
		}
	}
	c.lastSeen = status
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
