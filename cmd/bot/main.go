package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/voxel"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		every    = flag.Duration("every", 500*time.Millisecond, "interval between requests")
		meshFeed = flag.Bool("mesh_feed", false, "subscribe to CHUNK messages")
		seed     = flag.Int64("seed", 0, "rng seed (0 = time based)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities: protocol.HelloCapabilities{
			MeshFeed: *meshFeed,
			MaxQueue: 256,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	b := &bot{rng: rand.New(rand.NewSource(*seed))}
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			b.handle(logger, msg)
		case <-ticker.C:
			if !b.ready() {
				continue
			}
			if err := conn.WriteJSON(b.next()); err != nil {
				logger.Printf("send: %v", err)
				return
			}
		}
	}
}

// bot alternates between picking and editing at random points of the world.
type bot struct {
	rng     *rand.Rand
	welcome *protocol.WelcomeMsg
	seq     int
	chunks  int
}

func (b *bot) ready() bool { return b.welcome != nil }

func (b *bot) handle(logger *log.Logger, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return
		}
		b.welcome = &w
		logger.Printf("WELCOME session_id=%s tick_rate=%d grid=%v seed=%d", w.SessionID, w.WorldParams.TickRateHz, w.WorldParams.Grid, w.WorldParams.Seed)

	case protocol.TypeResult:
		var r protocol.ResultMsg
		if err := json.Unmarshal(msg, &r); err != nil {
			return
		}
		if r.OK {
			logger.Printf("RESULT id=%s tick=%d pos=%v", r.ID, r.Tick, deref(r.Pos))
		} else {
			logger.Printf("RESULT id=%s tick=%d code=%s msg=%s", r.ID, r.Tick, r.Code, r.Message)
		}

	case protocol.TypeChunk:
		b.chunks++
		if b.chunks%100 == 0 {
			logger.Printf("received %d chunks", b.chunks)
		}
	}
}

// next returns a PICK or EDIT aimed straight down at a random column.
func (b *bot) next() any {
	b.seq++
	p := b.welcome.WorldParams
	size := p.ChunkSize
	if size <= 0 {
		size = voxel.Size
	}
	x := float32(b.rng.Intn(p.Grid[0]*size)) + 0.5
	z := float32(b.rng.Intn(p.Grid[2]*size)) + 0.5
	ray := protocol.Ray{
		Origin: [3]float32{x, float32(p.Grid[1]*size) - 0.5, z},
		Dir:    [3]float32{0, -1, 0},
	}

	switch b.rng.Intn(4) {
	case 0:
		return protocol.EditMsg{
			Type: protocol.TypeEdit, ProtocolVersion: protocol.Version,
			ID: fmt.Sprintf("E_break_%d", b.seq), Op: protocol.OpBreak, Ray: &ray,
		}
	case 1:
		block := uint8(1)
		if b.rng.Intn(5) == 0 {
			block = voxel.Emitter
		}
		return protocol.EditMsg{
			Type: protocol.TypeEdit, ProtocolVersion: protocol.Version,
			ID: fmt.Sprintf("E_place_%d", b.seq), Op: protocol.OpPlace, Ray: &ray, Block: block,
		}
	default:
		return protocol.PickMsg{
			Type: protocol.TypePick, ProtocolVersion: protocol.Version,
			ID: fmt.Sprintf("P_%d", b.seq), Ray: ray,
		}
	}
}

func deref(p *[3]int) any {
	if p == nil {
		return nil
	}
	return *p
}
