package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	session := fs.String("session", "", "session_id filter (edits)")
	sinceTick := fs.Uint64("since_tick", 0, "only edits at or after tick (edits)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	switch q {
	case "snapshots":
		err = querySnapshots(db, os.Stdout, *limit)
	case "edits":
		err = queryEdits(db, os.Stdout, editFilter{Session: strings.TrimSpace(*session), SinceTick: *sinceTick, Limit: *limit})
	case "meta":
		err = queryMeta(db, os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-limit N] snapshots|edits|meta")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, q+":", err)
		os.Exit(1)
	}
}

type snapshotRow struct {
	Tick   int64  `json:"tick"`
	Path   string `json:"path"`
	Seed   int64  `json:"seed"`
	Grid   [3]int `json:"grid"`
	Bytes  int    `json:"bytes"`
	Digest string `json:"digest"`
}

func querySnapshots(db *sql.DB, out io.Writer, limit int) error {
	rows, err := db.Query(`SELECT tick,path,seed,grid_w,grid_h,grid_d,bytes,digest FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r snapshotRow
		if err := rows.Scan(&r.Tick, &r.Path, &r.Seed, &r.Grid[0], &r.Grid[1], &r.Grid[2], &r.Bytes, &r.Digest); err != nil {
			return err
		}
		printJSON(out, r)
	}
	return rows.Err()
}

type editFilter struct {
	Session   string
	SinceTick uint64
	Limit     int
}

type editRow struct {
	Tick      int64  `json:"tick"`
	Seq       int    `json:"seq"`
	SessionID string `json:"session_id"`
	ReqID     string `json:"req_id"`
	Op        string `json:"op"`
	Pos       [3]int `json:"pos"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Digest    string `json:"digest,omitempty"`
}

func queryEdits(db *sql.DB, out io.Writer, f editFilter) error {
	q := `SELECT tick,seq,session_id,req_id,op,x,y,z,from_block,to_block,digest FROM edits WHERE tick>=?`
	args := []any{int64(f.SinceTick)}
	if f.Session != "" {
		q += ` AND session_id=?`
		args = append(args, f.Session)
	}
	q += ` ORDER BY tick DESC, seq DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r      editRow
			digest sql.NullString
		)
		if err := rows.Scan(&r.Tick, &r.Seq, &r.SessionID, &r.ReqID, &r.Op, &r.Pos[0], &r.Pos[1], &r.Pos[2], &r.From, &r.To, &digest); err != nil {
			return err
		}
		r.Digest = digest.String
		printJSON(out, r)
	}
	return rows.Err()
}

func queryMeta(db *sql.DB, out io.Writer) error {
	rows, err := db.Query(`SELECT key,value FROM meta ORDER BY key`)
	if err != nil {
		return err
	}
	defer rows.Close()
	m := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return err
	}
	printJSON(out, m)
	return nil
}

func printJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
