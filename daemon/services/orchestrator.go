// Package services provides the orchestration layer: wiring the alert
// store, mute controller, buzzer controller, both source loops, and the
// command surface, and coordinating graceful shutdown.
package services

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/logger"
	"github.com/coldwatch/hmi-core/daemon/services/buzzer"
	"github.com/coldwatch/hmi-core/daemon/services/command"
	"github.com/coldwatch/hmi-core/daemon/services/dbsource"
	"github.com/coldwatch/hmi-core/daemon/services/mqttsource"
	"github.com/coldwatch/hmi-core/daemon/services/mute"
	"github.com/coldwatch/hmi-core/daemon/services/store"
)

// Orchestrator coordinates the lifecycle of the alert core: it owns the
// init order, starts every component, and drives graceful shutdown.
type Orchestrator struct {
	ctx *domain.Context
}

// CreateOrchestrator creates a new orchestrator with the given context.
func CreateOrchestrator(ctx *domain.Context) *Orchestrator {
	return &Orchestrator{ctx: ctx}
}

// Run wires every component and blocks until a termination signal arrives,
// then cancels the one context every component shares, so all of them are
// told to stop at the same moment, and waits for them for at most
// ShutdownGracePeriod.
func (o *Orchestrator) Run() error {
	logger.Info("Starting hmi-core v%s", o.ctx.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var wg sync.WaitGroup

	// Break the store/mute/buzzer cycle: the mute controller is built
	// first so its ForceClear method can be handed to the store as a
	// narrow interface, and the buzzer controller polls the store
	// instead of being called by it.
	muteDuration := time.Duration(o.ctx.MuteDurationSeconds) * time.Second
	if muteDuration <= 0 {
		muteDuration = constants.DefaultMuteDurationSeconds * time.Second
	}
	muteController := mute.New(muteDuration, o.ctx.Hub)
	alertStore := store.New(o.ctx.Hub, muteController)

	driver := buzzer.NewGPIODriver(o.ctx.BuzzerGPIOPin)
	buzzerController := buzzer.New(driver, alertStore, muteController, o.ctx.BuzzerEnabled)

	wg.Add(1)
	go func() {
		defer wg.Done()
		buzzerController.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		muteTickLoop(ctx, muteController)
	}()

	mqttClient := mqttsource.NewClient(&o.ctx.MQTT, alertStore)
	wg.Add(1)
	go func() {
		defer wg.Done()
		mqttClient.Run(ctx)
	}()

	var dbClient *dbsource.Client
	if o.ctx.DBConfigured() {
		dbClient = dbsource.NewClient(o.ctx.DB, alertStore, o.ctx.Hub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			dbClient.Run(ctx)
		}()
		logger.Info("database source loop started")
	} else {
		logger.Info("database credentials absent, proceeding with MQTT only")
	}

	var dbReporter command.ConnectionReporter
	if dbClient != nil {
		dbReporter = dbClient
	}

	commandServer := command.NewServer(o.ctx.Port, o.ctx.CORSOrigin, alertStore, muteController, mqttClient, dbReporter, buzzerController)

	wg.Add(1)
	go func() {
		defer wg.Done()
		commandServer.BridgeEvents(ctx, o.ctx.Hub)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := commandServer.Run(ctx); err != nil {
			logger.Error("command server error: %v", err)
		}
	}()

	logger.Success("hmi-core running, command surface on port %d", o.ctx.Port)

	<-ctx.Done()
	stop()
	logger.Warning("received shutdown signal, shutting down")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(constants.ShutdownGracePeriod):
		logger.Warning("shutdown grace period elapsed, exiting without waiting on every goroutine")
	}

	logger.Info("shutdown complete")
	return nil
}

// muteTickLoop drives the mute controller's expiry check at
// MuteTickInterval until ctx is canceled.
func muteTickLoop(ctx context.Context, m *mute.Controller) {
	ticker := time.NewTicker(constants.MuteTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}
