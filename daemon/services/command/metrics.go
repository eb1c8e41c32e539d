package command

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeAlerts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hmi_active_alerts",
		Help: "Number of currently active alerts",
	})
	mqttConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hmi_mqtt_connected",
		Help: "MQTT broker connection state (1=connected, 0=disconnected)",
	})
	dbConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hmi_db_connected",
		Help: "Database realtime connection state (1=connected, 0=disconnected)",
	})
	muteActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hmi_mute_active",
		Help: "Mute state (1=active, 0=inactive)",
	})
	buzzerDisabled = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hmi_buzzer_disabled",
		Help: "Buzzer controller latched-disabled state (1=disabled, 0=normal)",
	})
)

var metricsRegistry = prometheus.NewRegistry()

func init() {
	metricsRegistry.MustRegister(activeAlerts, mqttConnected, dbConnected, muteActive, buzzerDisabled)
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// refreshMetrics samples the current state into the exported gauges.
// Called on every /metrics scrape.
func (s *Server) refreshMetrics() {
	activeAlerts.Set(float64(len(s.store.Snapshot())))
	mqttConnected.Set(boolToGauge(s.mqtt.IsConnected()))
	if s.db != nil {
		dbConnected.Set(boolToGauge(s.db.IsConnected()))
	}
	muteActive.Set(boolToGauge(s.mute.Status().Muted))
	if s.buzzer != nil {
		buzzerDisabled.Set(boolToGauge(s.buzzer.Disabled()))
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.refreshMetrics()
	promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
