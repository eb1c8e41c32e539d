package command

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/services/probe"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dto.Response{Success: true, Data: data, Timestamp: time.Now()})
}

// handleGetActiveAlerts godoc
//
//	@Summary		List active alerts
//	@Description	Returns every currently active alert, newest date_time first, ties ordered by id ascending.
//	@Tags			Alerts
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/alerts [get]
func (s *Server) handleGetActiveAlerts(w http.ResponseWriter, r *http.Request) {
	ok(w, s.store.Snapshot())
}

// handleRemoveAlert godoc
//
//	@Summary		Remove an alert
//	@Description	Removes the alert with the given id. A no-op returning removed=false if the id is not active.
//	@Tags			Alerts
//	@Produce		json
//	@Param			id	path	string	true	"Alert id"
//	@Success		200	{object}	dto.Response
//	@Router			/alerts/{id} [delete]
func (s *Server) handleRemoveAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed := s.store.Remove(id)
	ok(w, dto.RemoveAlertResponse{Removed: removed})
}

// handleCheckInternetConnection godoc
//
//	@Summary		Check internet reachability
//	@Description	Reports whether the fixed reachability target is dialable over TCP.
//	@Tags			Network
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/network/check [get]
func (s *Server) handleCheckInternetConnection(w http.ResponseWriter, r *http.Request) {
	ok(w, dto.BoolResult{Result: probe.CheckInternetConnection()})
}

// handleGetMuteStatus godoc
//
//	@Summary		Get mute status
//	@Tags			Mute
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/mute [get]
func (s *Server) handleGetMuteStatus(w http.ResponseWriter, r *http.Request) {
	ok(w, s.mute.Status())
}

// handleToggleMute godoc
//
//	@Summary		Toggle mute
//	@Description	Flips Inactive to Active{now+duration}, or Active to Inactive.
//	@Tags			Mute
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/mute/toggle [post]
func (s *Server) handleToggleMute(w http.ResponseWriter, r *http.Request) {
	ok(w, s.mute.Toggle())
}

// handleIsMQTTConnected godoc
//
//	@Summary		MQTT broker connection state
//	@Tags			Status
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/mqtt/status [get]
func (s *Server) handleIsMQTTConnected(w http.ResponseWriter, r *http.Request) {
	ok(w, dto.BoolResult{Result: s.mqtt.IsConnected()})
}

// handleIsDBConnected godoc
//
//	@Summary		Database realtime connection state
//	@Tags			Status
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/db/status [get]
func (s *Server) handleIsDBConnected(w http.ResponseWriter, r *http.Request) {
	connected := s.db != nil && s.db.IsConnected()
	ok(w, dto.BoolResult{Result: connected})
}
