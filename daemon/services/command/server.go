// Package command implements the HTTP command surface and WebSocket event
// surface exposed to the UI shell: the seven commands of §4.6 and the four
// broadcast events, wired to the alert store, mute controller, and the two
// source loops.
package command

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/coldwatch/hmi-core/daemon/docs" // swagger docs
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// AlertStore is the subset of the alert store the command surface reads
// and writes.
type AlertStore interface {
	Snapshot() []dto.Alert
	Remove(id string) bool
}

// MuteController is the subset of the mute controller the command surface uses.
type MuteController interface {
	Status() dto.MuteStatus
	Toggle() dto.MuteStatus
}

// ConnectionReporter is satisfied by both source loop clients.
type ConnectionReporter interface {
	IsConnected() bool
}

// BuzzerReporter is satisfied by the buzzer controller.
type BuzzerReporter interface {
	Disabled() bool
}

// Server serves the HTTP command surface and hosts the WebSocket event hub.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	wsHub      *WSHub

	store  AlertStore
	mute   MuteController
	mqtt   ConnectionReporter
	db     ConnectionReporter // nil if the database loop was never started
	buzzer BuzzerReporter
}

// NewServer creates a command/event surface server listening on port, with
// corsOrigin applied by the CORS middleware ("*" when empty).
func NewServer(port int, corsOrigin string, store AlertStore, mute MuteController,
	mqtt ConnectionReporter, db ConnectionReporter, buzzer BuzzerReporter) *Server {
	s := &Server{
		router: mux.NewRouter(),
		wsHub:  NewWSHub(),
		store:  store,
		mute:   mute,
		mqtt:   mqtt,
		db:     db,
		buzzer: buzzer,
	}
	s.setupRoutes(corsOrigin)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(corsOrigin string) {
	s.router.Use(corsMiddleware(corsOrigin))
	s.router.Use(loggingMiddleware)
	s.router.Use(recoveryMiddleware)

	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/alerts", s.handleGetActiveAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}", s.handleRemoveAlert).Methods(http.MethodDelete)
	api.HandleFunc("/network/check", s.handleCheckInternetConnection).Methods(http.MethodGet)
	api.HandleFunc("/mute", s.handleGetMuteStatus).Methods(http.MethodGet)
	api.HandleFunc("/mute/toggle", s.handleToggleMute).Methods(http.MethodPost)
	api.HandleFunc("/mqtt/status", s.handleIsMQTTConnected).Methods(http.MethodGet)
	api.HandleFunc("/db/status", s.handleIsDBConnected).Methods(http.MethodGet)
}

// BridgeEvents subscribes to the four domain event topics and forwards
// each to the WebSocket hub for broadcast to connected UI clients.
func (s *Server) BridgeEvents(ctx context.Context, hub *domain.EventBus) {
	ch := hub.Sub(
		"alerts://added", "alerts://removed", "alerts://mute_changed", "device://status_changed",
	)
	defer hub.Unsub(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			topic, data := classify(msg)
			if topic != "" {
				s.wsHub.Broadcast(topic, data)
			}
		}
	}
}

func classify(msg any) (topic string, data any) {
	switch v := msg.(type) {
	case dto.Alert:
		return "alerts://added", v
	case dto.AlertRemoved:
		return "alerts://removed", v
	case dto.MuteStatus:
		return "alerts://mute_changed", v
	case dto.DeviceStatusUpdate:
		return "device://status_changed", v
	default:
		return "", nil
	}
}

// Run starts the HTTP server and the WebSocket hub, blocking until ctx is
// canceled, at which point it shuts the HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.wsHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("command: listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
