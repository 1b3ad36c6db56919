package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/coach"
	"github.com/ferrisk/coachd/internal/profile"
)

var peakHour = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *coach.FakeClock) {
	t.Helper()
	store, err := profile.NewStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := coach.NewFakeClock(peakHour)
	o, err := coach.New(coach.Options{Store: store, Clock: clock, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	srv := httptest.NewServer(NewHandler(o, zerolog.Nop()).Routes())
	t.Cleanup(srv.Close)
	return srv, clock
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

const receptiveBody = `{"cognitive_load": 0.2, "attention_level": 0.9, "stress_level": 0.2}`

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestDecideReturnsIntervention(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}
	if deferred, _ := body["deferred"].(bool); deferred {
		t.Fatalf("expected an intervention, got defer: %v", body)
	}
	if body["intervention_id"] == "" || body["intervention"] == nil {
		t.Fatalf("missing intervention payload: %v", body)
	}
}

func TestDecideReportsDefer(t *testing.T) {
	srv, _ := newTestServer(t)

	// First call intervenes; the immediate second call hits the cooldown.
	postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	resp, body := postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if deferred, _ := body["deferred"].(bool); !deferred {
		t.Fatalf("expected a defer: %v", body)
	}
	if body["reason"] != "cooldown" {
		t.Fatalf("reason = %v, want cooldown", body["reason"])
	}
}

func TestDecideRejectsInvalidSignal(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/v1/users/alice/decide", `{"cognitive_load": 1.5}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %v", resp.StatusCode, body)
	}
}

func TestOutcomeLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	_, decided := postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	id, _ := decided["intervention_id"].(string)
	if id == "" {
		t.Fatalf("no intervention id: %v", decided)
	}

	resp, _ := postJSON(t, srv.URL+"/v1/interventions/"+id+"/delivered", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delivered status = %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, srv.URL+"/v1/interventions/"+id+"/outcome",
		`{"engagement": 0.9, "completed": true, "satisfaction": 0.8}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("outcome status = %d", resp.StatusCode)
	}

	// Duplicate feedback conflicts.
	resp, _ = postJSON(t, srv.URL+"/v1/interventions/"+id+"/outcome", `{"engagement": 0.1}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate outcome status = %d, want 409", resp.StatusCode)
	}
}

func TestOutcomeUnknownIntervention(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := postJSON(t, srv.URL+"/v1/interventions/nope/outcome", `{"engagement": 0.5}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestOutcomeOutOfRange(t *testing.T) {
	srv, _ := newTestServer(t)

	_, decided := postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	id, _ := decided["intervention_id"].(string)

	resp, _ := postJSON(t, srv.URL+"/v1/interventions/"+id+"/outcome", `{"engagement": 2.0}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProfileEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Unknown user 404s.
	resp, err := http.Get(srv.URL + "/v1/users/nobody/profile")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	// A decision creates the profile.
	postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	resp, err = http.Get(srv.URL + "/v1/users/alice/profile")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user_id"] != "alice" {
		t.Fatalf("user_id = %v", body["user_id"])
	}
	weights, _ := body["strategy_weights"].(map[string]interface{})
	if len(weights) == 0 {
		t.Fatalf("missing strategy weights: %v", body)
	}
}

func TestDecisionTrailEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)
	postJSON(t, srv.URL+"/v1/users/alice/decide", receptiveBody)

	resp, err := http.Get(srv.URL + "/v1/users/alice/decisions?limit=10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	decisions, _ := body["decisions"].([]interface{})
	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}

	resp, err = http.Get(srv.URL + "/v1/users/alice/decisions?limit=bogus")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", resp.StatusCode)
	}
}
