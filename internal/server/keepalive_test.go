package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStats struct {
	catalog, sessions int
	depths            map[string]int
}

func (f fakeStats) CatalogSize() int            { return f.catalog }
func (f fakeStats) ActiveSessions() int         { return f.sessions }
func (f fakeStats) QueueDepths() map[string]int { return f.depths }

func TestRouter_Root(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(fakeStats{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "I'm alive!" {
		t.Errorf("body = %q", body)
	}
}

func TestRouter_Healthz(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(fakeStats{catalog: 110, sessions: 3, depths: map[string]int{"a": 42, "b": 7}}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.CatalogEntries != 110 || got.ActiveSessions != 3 {
		t.Errorf("health = %+v", got)
	}
	if got.QueueDepths["a"] != 42 || got.QueueDepths["b"] != 7 {
		t.Errorf("queue_depths = %v", got.QueueDepths)
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(fakeStats{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
