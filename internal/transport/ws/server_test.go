package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/world"
)

func startServer(t *testing.T) string {
	t.Helper()
	w, err := world.New(world.WorldConfig{
		ID:         "ws_test",
		TickRateHz: 50,
		Grid:       [3]int{1, 2, 1},
		Seed:       3,
		BaseHeight: 10,
	})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readType reads until a message of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type != typ {
			continue
		}
		if err := json.Unmarshal(b, v); err != nil {
			t.Fatalf("unmarshal %s: %v", typ, err)
		}
		return
	}
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "tester",
	})
	var welcome protocol.WelcomeMsg
	readType(t, conn, protocol.TypeWelcome, &welcome)
	return welcome
}

func TestServer_HelloEditPick(t *testing.T) {
	conn := dial(t, startServer(t))
	welcome := hello(t, conn)
	if welcome.SessionID == "" || welcome.WorldParams.ChunkSize != 16 || welcome.WorldParams.Grid != [3]int{1, 2, 1} {
		t.Fatalf("welcome: %+v", welcome)
	}

	pos := [3]int{8, 10, 8}
	send(t, conn, protocol.EditMsg{
		Type:            protocol.TypeEdit,
		ProtocolVersion: protocol.Version,
		ID:              "e1",
		Op:              protocol.OpBreak,
		Pos:             &pos,
	})
	var res protocol.ResultMsg
	readType(t, conn, protocol.TypeResult, &res)
	if res.ID != "e1" || !res.OK {
		t.Fatalf("edit result: %+v", res)
	}

	send(t, conn, protocol.PickMsg{
		Type:            protocol.TypePick,
		ProtocolVersion: protocol.Version,
		ID:              "p1",
		Ray:             protocol.Ray{Origin: [3]float32{8.5, 30, 8.5}, Dir: [3]float32{0, -1, 0}},
	})
	readType(t, conn, protocol.TypeResult, &res)
	if res.ID != "p1" || !res.OK || res.Pos == nil || *res.Pos != [3]int{8, 9, 8} {
		t.Fatalf("pick result: %+v", res)
	}
}

func TestServer_RejectsMalformedMessages(t *testing.T) {
	conn := dial(t, startServer(t))
	hello(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var res protocol.ResultMsg
	readType(t, conn, protocol.TypeResult, &res)
	if res.OK || res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("bad json: %+v", res)
	}

	send(t, conn, map[string]any{"type": "TELEPORT", "protocol_version": protocol.Version})
	readType(t, conn, protocol.TypeResult, &res)
	if res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("unknown type: %+v", res)
	}
}

func TestServer_RequiresHello(t *testing.T) {
	conn := dial(t, startServer(t))
	send(t, conn, protocol.PickMsg{Type: protocol.TypePick, ProtocolVersion: protocol.Version, ID: "p"})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
