package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowlingo/shadow/internal/app/presenter"
	"github.com/shadowlingo/shadow/internal/app/stats"
	"github.com/shadowlingo/shadow/internal/infra/analytics"
	"github.com/shadowlingo/shadow/internal/infra/docstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.Nop()

	db, err := docstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	streak := stats.NewStreakService(db, log)
	agg, err := stats.NewAggregator(stats.AggregatorConfig{
		UserID:   "u1",
		Timezone: "UTC",
	}, db, stats.DefaultRanks(), streak, analytics.NopSink{}, log)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}

	ctrl := presenter.NewControllerWithTimings(agg, analytics.NopSink{}, log, 2*time.Second, 4*time.Second)
	t.Cleanup(ctrl.Close)

	return NewServer(agg, streak, ctrl, "u1", "0.1.0")
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	json.NewDecoder(w.Body).Decode(&out)
	return w, out
}

// ─── Health / Version ───────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestAPI_Version(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, "GET", "/api/version", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["version"] != "0.1.0" {
		t.Errorf("version = %q, want 0.1.0", body["version"])
	}
}

// ─── Events ─────────────────────────────────────────────────────────────────

func TestAPI_RecordEvent(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	session, ok := body["session"].(map[string]interface{})
	if !ok {
		t.Fatal("session missing from response")
	}
	if session["listened"] != float64(1) {
		t.Errorf("listened = %v, want 1", session["listened"])
	}

	streak, ok := body["streak"].(map[string]interface{})
	if !ok {
		t.Fatal("streak missing from response")
	}
	if streak["outcome"] != "first_time" {
		t.Errorf("outcome = %v, want first_time", streak["outcome"])
	}
}

func TestAPI_RecordEvent_UnknownType(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "scrolled"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_RecordEvent_MilestoneDrivesPopup(t *testing.T) {
	srv := newTestServer(t)

	// The first total-rank boundary sits at 10 phrases; crossing it must
	// surface a milestone snackbar.
	var body map[string]interface{}
	for i := 0; i < 10; i++ {
		_, body = doJSON(t, srv, "POST", "/api/events",
			`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)
	}
	milestones, ok := body["milestones"].([]interface{})
	if !ok || len(milestones) != 1 {
		t.Fatalf("milestones = %v, want 1 at the 10th event", body["milestones"])
	}

	_, state := doJSON(t, srv, "GET", "/api/presentation/state", "")
	if state["state"] != "snackbar" {
		t.Errorf("state = %v after milestone, want snackbar", state["state"])
	}
}

func TestAPI_Sync(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "viewed"}`)

	w, body := doJSON(t, srv, "POST", "/api/sync", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["lifetime_total"] != float64(1) {
		t.Errorf("lifetime_total = %v, want 1", body["lifetime_total"])
	}
}

// ─── Stats Queries ──────────────────────────────────────────────────────────

func TestAPI_Summary(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)

	w, body := doJSON(t, srv, "GET", "/api/stats/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	today, ok := body["today"].(map[string]interface{})
	if !ok {
		t.Fatal("today missing from response")
	}
	if today["total_count"] != float64(1) {
		t.Errorf("today total = %v, want 1", today["total_count"])
	}
	if body["current_streak"] != float64(1) {
		t.Errorf("current_streak = %v, want 1", body["current_streak"])
	}
}

func TestAPI_Daily(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)

	w, body := doJSON(t, srv, "GET", "/api/stats/daily?days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	records, ok := body["records"].([]interface{})
	if !ok {
		t.Fatal("records missing from response")
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}

	w, _ = doJSON(t, srv, "GET", "/api/stats/daily?days=9000", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d for out-of-range days, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_Languages(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)
	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "fr", "type": "viewed"}`)

	w, body := doJSON(t, srv, "GET", "/api/stats/languages", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	langs, ok := body["languages"].([]interface{})
	if !ok {
		t.Fatal("languages missing from response")
	}
	if len(langs) != 2 {
		t.Errorf("languages = %d, want 2", len(langs))
	}
}

func TestAPI_Streak(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)

	w, body := doJSON(t, srv, "GET", "/api/stats/streak", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["current_streak"] != float64(1) {
		t.Errorf("current_streak = %v, want 1", body["current_streak"])
	}
}

// ─── Presentation ───────────────────────────────────────────────────────────

func TestAPI_PresentationFlow(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, "POST", "/api/events",
		`{"input_lang": "en", "target_lang": "ja", "type": "listened"}`)

	w, body := doJSON(t, srv, "POST", "/api/presentation/complete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d", w.Code)
	}
	if body["state"] != "full_screen" || body["step"] != "opening" {
		t.Fatalf("state/step = %v/%v, want full_screen/opening", body["state"], body["step"])
	}

	// A snackbar must not pre-empt the completion flow.
	_, body = doJSON(t, srv, "POST", "/api/presentation/notice", `{"title": "hi"}`)
	if body["shown"] != false {
		t.Error("snackbar shown during completion flow")
	}

	_, body = doJSON(t, srv, "POST", "/api/presentation/advance", "")
	if body["step"] != "progress" {
		t.Fatalf("step = %v, want progress", body["step"])
	}
	if _, ok := body["today"]; !ok {
		t.Error("progress step response missing today snapshot")
	}

	// No milestones this session: progress skips straight to actions.
	_, body = doJSON(t, srv, "POST", "/api/presentation/advance", "")
	if body["step"] != "actions" {
		t.Fatalf("step = %v, want actions", body["step"])
	}

	w, body = doJSON(t, srv, "POST", "/api/presentation/finish", `{"action": "go_next"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("finish: status = %d", w.Code)
	}
	if body["action"] != "go_next" || body["reset_session"] != true {
		t.Errorf("command = %v, want go_next with reset", body)
	}

	_, body = doJSON(t, srv, "GET", "/api/presentation/state", "")
	if body["state"] != "idle" {
		t.Errorf("state = %v after finish, want idle", body["state"])
	}
}

func TestAPI_Finish_UnknownAction(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, "POST", "/api/presentation/finish", `{"action": "teleport"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_Advance_OutsideFlow(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, "POST", "/api/presentation/advance", "")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}
