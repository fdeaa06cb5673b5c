package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/world"
)

const (
	writeWait     = 5 * time.Second
	readIdle      = 60 * time.Second
	helloWait     = 5 * time.Second
	defaultQueue  = 64
	maxQueueLimit = 1024
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.logf("session %s connected from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						_ = conn.Close()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readIdle))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.route(sessionID, out, msg)
		}

		cancel()
		<-done
		s.world.Leave() <- sessionID
		s.logf("session %s disconnected", sessionID)
	}
}

// route forwards one client message to the world. Malformed messages and a
// full inbox are answered here without involving the world loop.
func (s *Server) route(sessionID string, out chan []byte, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		reject(out, "", protocol.ErrProtoBadRequest, "invalid json")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		reject(out, "", protocol.ErrProtoBadRequest, "bad protocol_version")
		return
	}

	var req world.Request
	req.SessionID = sessionID
	switch base.Type {
	case protocol.TypeEdit:
		var m protocol.EditMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reject(out, "", protocol.ErrProtoBadRequest, "bad EDIT")
			return
		}
		req.Edit = &m
	case protocol.TypePick:
		var m protocol.PickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reject(out, "", protocol.ErrProtoBadRequest, "bad PICK")
			return
		}
		req.Pick = &m
	default:
		reject(out, "", protocol.ErrProtoBadRequest, "unexpected type "+base.Type)
		return
	}

	select {
	case s.world.Inbox() <- req:
	default:
		reject(out, requestID(req), protocol.ErrWorldBusy, "world inbox full")
	}
}

func requestID(r world.Request) string {
	if r.Edit != nil {
		return r.Edit.ID
	}
	if r.Pick != nil {
		return r.Pick.ID
	}
	return ""
}

func reject(out chan []byte, id, code, message string) {
	b, err := json.Marshal(protocol.NewResult(id, 0).Fail(code, message))
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(helloWait))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = defaultQueue
	}
	if maxQ > maxQueueLimit {
		maxQ = maxQueueLimit
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{
		SessionID: uuid.NewString(),
		Name:      hello.ClientName,
		MeshFeed:  hello.Capabilities.MeshFeed,
		Out:       out,
		Resp:      respCh,
	}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- resp.Welcome.SessionID
		return "", nil
	}
	return resp.Welcome.SessionID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
