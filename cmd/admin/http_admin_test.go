package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voxlight.ai/internal/sim/world"
)

func adminTestServer(t *testing.T, snapshotOK bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(rw).Encode(serverState{
			WorldID: "w1",
			Tick:    77,
			Metrics: world.WorldMetrics{Tick: 77, Digest: "00000000deadbeef", Grid: [3]int{4, 2, 4}, Sessions: 3},
		})
	})
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !snapshotOK {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": 0, "error": "snapshot sink busy"})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": 78})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchState_PrintsTickDigestGrid(t *testing.T) {
	srv := adminTestServer(t, true)
	st, err := fetchState(&http.Client{Timeout: 5 * time.Second}, srv.URL+"/")
	if err != nil {
		t.Fatalf("fetchState: %v", err)
	}
	if st.Tick != 77 || st.Metrics.Digest != "00000000deadbeef" || st.Metrics.Grid != [3]int{4, 2, 4} {
		t.Fatalf("state: %+v", st)
	}

	var out bytes.Buffer
	printState(&out, st)
	want := "world=w1 tick=77 digest=00000000deadbeef grid=4x2x4\n"
	if !strings.HasPrefix(out.String(), want) {
		t.Fatalf("printState: got %q want prefix %q", out.String(), want)
	}
	if !strings.Contains(out.String(), "sessions=3") {
		t.Fatalf("printState missing sessions: %q", out.String())
	}
}

func TestFetchState_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()
	if _, err := fetchState(srv.Client(), srv.URL); err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestRequestSnapshot(t *testing.T) {
	srv := adminTestServer(t, true)
	tick, err := requestSnapshot(srv.Client(), srv.URL)
	if err != nil || tick != 78 {
		t.Fatalf("requestSnapshot: tick=%d err=%v", tick, err)
	}

	busy := adminTestServer(t, false)
	if _, err := requestSnapshot(busy.Client(), busy.URL); err == nil || !strings.Contains(err.Error(), "snapshot sink busy") {
		t.Fatalf("expected busy error, got %v", err)
	}
}
