package command

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/coldwatch/hmi-core/daemon/dto"
)

type fakeStore struct {
	alerts  []dto.Alert
	removed string
	result  bool
}

func (f *fakeStore) Snapshot() []dto.Alert { return f.alerts }
func (f *fakeStore) Remove(id string) bool {
	f.removed = id
	return f.result
}

type fakeMute struct {
	status  dto.MuteStatus
	toggled bool
}

func (f *fakeMute) Status() dto.MuteStatus { return f.status }
func (f *fakeMute) Toggle() dto.MuteStatus {
	f.toggled = true
	return f.status
}

type fakeConn struct{ connected bool }

func (f fakeConn) IsConnected() bool { return f.connected }

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestHandleGetActiveAlerts(t *testing.T) {
	store := &fakeStore{alerts: []dto.Alert{{ID: "mqtt:1"}}}
	s := &Server{store: store, mute: &fakeMute{}, mqtt: fakeConn{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	s.handleGetActiveAlerts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("expected success response")
	}
}

func TestHandleRemoveAlert(t *testing.T) {
	store := &fakeStore{result: true}
	s := &Server{store: store}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/mqtt:1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "mqtt:1"})
	rec := httptest.NewRecorder()
	s.handleRemoveAlert(rec, req)

	if store.removed != "mqtt:1" {
		t.Fatalf("expected Remove called with mqtt:1, got %q", store.removed)
	}

	var resp struct {
		Data dto.RemoveAlertResponse `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Data.Removed {
		t.Fatal("expected removed=true in response")
	}
}

func TestHandleGetMuteStatus(t *testing.T) {
	mute := &fakeMute{status: dto.MuteStatus{Muted: true}}
	s := &Server{mute: mute}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mute", nil)
	rec := httptest.NewRecorder()
	s.handleGetMuteStatus(rec, req)

	var resp struct {
		Data dto.MuteStatus `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Data.Muted {
		t.Fatal("expected muted=true in response")
	}
}

func TestHandleToggleMute(t *testing.T) {
	mute := &fakeMute{status: dto.MuteStatus{Muted: false}}
	s := &Server{mute: mute}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mute/toggle", nil)
	rec := httptest.NewRecorder()
	s.handleToggleMute(rec, req)

	if !mute.toggled {
		t.Fatal("expected Toggle to be called")
	}
}

func TestHandleIsMQTTConnected(t *testing.T) {
	s := &Server{mqtt: fakeConn{connected: true}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mqtt/status", nil)
	rec := httptest.NewRecorder()
	s.handleIsMQTTConnected(rec, req)

	var resp struct {
		Data dto.BoolResult `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Data.Result {
		t.Fatal("expected result=true")
	}
}

func TestHandleIsDBConnectedNilDB(t *testing.T) {
	s := &Server{db: nil}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/db/status", nil)
	rec := httptest.NewRecorder()
	s.handleIsDBConnected(rec, req)

	var resp struct {
		Data dto.BoolResult `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Data.Result {
		t.Fatal("expected result=false when the database loop was never started")
	}
}

func TestClassifyMapsEachEventType(t *testing.T) {
	cases := []struct {
		msg       any
		wantTopic string
	}{
		{dto.Alert{ID: "x"}, "alerts://added"},
		{dto.AlertRemoved{ID: "x"}, "alerts://removed"},
		{dto.MuteStatus{}, "alerts://mute_changed"},
		{dto.DeviceStatusUpdate{}, "device://status_changed"},
		{"unexpected", ""},
	}
	for _, tc := range cases {
		topic, _ := classify(tc.msg)
		if topic != tc.wantTopic {
			t.Errorf("classify(%#v) topic = %q, want %q", tc.msg, topic, tc.wantTopic)
		}
	}
}
