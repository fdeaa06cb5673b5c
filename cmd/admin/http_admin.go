package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"voxlight.ai/internal/sim/world"
)

// serverState mirrors the server's /admin/v1/state body.
type serverState struct {
	WorldID string             `json:"world_id"`
	Tick    uint64             `json:"tick"`
	Metrics world.WorldMetrics `json:"metrics"`
}

type snapshotReply struct {
	OK    bool   `json:"ok"`
	Tick  uint64 `json:"tick"`
	Error string `json:"error,omitempty"`
}

func adminURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}

func fetchState(cl *http.Client, base string) (serverState, error) {
	var st serverState
	resp, err := cl.Get(adminURL(base, "/admin/v1/state"))
	if err != nil {
		return st, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return st, fmt.Errorf("state: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

func requestSnapshot(cl *http.Client, base string) (uint64, error) {
	req, err := http.NewRequest(http.MethodPost, adminURL(base, "/admin/v1/snapshot"), nil)
	if err != nil {
		return 0, err
	}
	resp, err := cl.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	var rep snapshotReply
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return 0, fmt.Errorf("snapshot: %s: decode: %w", resp.Status, err)
	}
	if !rep.OK || resp.StatusCode/100 != 2 {
		return rep.Tick, fmt.Errorf("snapshot: %s: %s", resp.Status, rep.Error)
	}
	return rep.Tick, nil
}

func printState(out io.Writer, st serverState) {
	m := st.Metrics
	fmt.Fprintf(out, "world=%s tick=%d digest=%s grid=%dx%dx%d\n",
		st.WorldID, st.Tick, m.Digest, m.Grid[0], m.Grid[1], m.Grid[2])
	fmt.Fprintf(out, "sessions=%d subscribers=%d edits_applied=%d edits_rejected=%d picks=%d chunks_sent=%d sends_dropped=%d\n",
		m.Sessions, m.Subscribers, m.EditsApplied, m.EditsRejected, m.Picks, m.ChunksSent, m.SendsDropped)
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	asJSON := fs.Bool("json", false, "print the raw state as json")
	_ = fs.Parse(args)

	st, err := fetchState(&http.Client{Timeout: 5 * time.Second}, *baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *asJSON {
		printJSON(os.Stdout, st)
		return
	}
	printState(os.Stdout, st)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	tick, err := requestSnapshot(&http.Client{Timeout: 10 * time.Second}, *baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("snapshot queued at tick %d\n", tick)
}
