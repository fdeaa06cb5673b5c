package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick   uint64 `json:"tick"`
	Digest string `json:"digest"`
	Grid   [3]int `json:"grid"`

	Sessions    int `json:"sessions"`
	Subscribers int `json:"subscribers"`
	Chunks      int `json:"chunks"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	EditsApplied  uint64 `json:"edits_applied"`
	EditsRejected uint64 `json:"edits_rejected"`
	Picks         uint64 `json:"picks"`
	ChunksSent    uint64 `json:"chunks_sent"`
	SendsDropped  uint64 `json:"sends_dropped"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) storeMetrics(tick uint64, stepMS float64) {
	subs := 0
	for _, s := range w.sessions {
		if s.MeshFeed {
			subs++
		}
	}
	w.metrics.Store(WorldMetrics{
		Tick:        tick,
		Digest:      w.digest,
		Grid:        w.cfg.Grid,
		Sessions:    len(w.sessions),
		Subscribers: subs,
		Chunks:      w.grid.Volume(),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS:        stepMS,
		EditsApplied:  w.counters.editsApplied,
		EditsRejected: w.counters.editsRejected,
		Picks:         w.counters.picks,
		ChunksSent:    w.counters.chunksSent,
		SendsDropped:  w.counters.sendsDropped,
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
