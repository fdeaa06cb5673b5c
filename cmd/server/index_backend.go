package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"voxlight.ai/internal/persistence/indexdb"
	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/tuning"
	"voxlight.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.EditLogger
	Close() error
	UpsertTuning(worldID string, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VL_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported VL_INDEX_BACKEND: %s", backend)
	}
}

// multiEditLogger fans edits out to the durable log and the index. The log is
// the source of truth; index failures never surface.
type multiEditLogger struct {
	a world.EditLogger
	b world.EditLogger
}

func (m multiEditLogger) WriteEdit(entry world.EditLogEntry) error {
	var err error
	if m.a != nil {
		err = m.a.WriteEdit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteEdit(entry)
	}
	return err
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
