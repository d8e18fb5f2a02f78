// Package bridge terminates client websockets and shuttles frames to and
// from the broker queues. It holds no game state: each socket maps onto one
// session queue pair, and the first frame is forwarded to the lobby queue so
// the game server can admit the player.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// How long the outbound pump waits on the queue before re-checking the
	// socket is still alive.
	popInterval = time.Second
)

// Bridge upgrades websocket connections and runs a session per socket.
type Bridge struct {
	broker     broker.Broker
	lobbyQueue string
	upgrader   websocket.Upgrader
	logger     *log.Logger
}

// New creates a bridge pushing connection requests onto lobbyQueue.
func New(b broker.Broker, lobbyQueue string, logger *log.Logger) *Bridge {
	return &Bridge{
		broker:     b,
		lobbyQueue: lobbyQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The bridge is origin-agnostic; auth happens at the lobby.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.WithPrefix("bridge"),
	}
}

// ServeHTTP upgrades the connection and runs the session until either side
// closes.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	session, err := b.admit(r.Context(), conn)
	if err != nil {
		b.logger.Warn("Rejected connection", "error", err)
		conn.Close()
		return
	}
	session.run(r.Context())
}

// admit reads the connect frame, forwards it to the lobby and binds the
// session queue pair.
func (b *Bridge) admit(ctx context.Context, conn *websocket.Conn) (*session, error) {
	conn.SetReadLimit(maxMessageSize)

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect frame: %w", err)
	}
	var req protocol.ConnectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding connect frame: %w", err)
	}
	if req.MessageType != protocol.TypeConnect {
		return nil, fmt.Errorf("expected %q frame, got %q", protocol.TypeConnect, req.MessageType)
	}
	if req.Player.ID == "" || req.SessionID == "" {
		return nil, fmt.Errorf("connect frame is missing player id or session id")
	}

	if err := broker.NewMessageQueue(b.broker, b.lobbyQueue).Push(ctx, json.RawMessage(raw)); err != nil {
		return nil, fmt.Errorf("forwarding connect request: %w", err)
	}

	prefix := fmt.Sprintf("poker:player-%s:session-%s:", req.Player.ID, req.SessionID)
	return &session{
		conn: conn,
		// Mirror image of the server's channel: the bridge writes what the
		// client sends and reads what the server sends.
		in:     broker.NewMessageQueue(b.broker, prefix+"O"),
		out:    broker.NewMessageQueue(b.broker, prefix+"I"),
		logger: b.logger.With("player", req.Player.ID, "session", req.SessionID),
	}, nil
}

// session pumps frames between one websocket and its queue pair.
type session struct {
	conn   *websocket.Conn
	in     *broker.MessageQueue
	out    *broker.MessageQueue
	logger *log.Logger
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.writePump(ctx, cancel)
	s.readPump(ctx, cancel)
}

// readPump forwards client frames to the inbound queue. A closed socket
// becomes a disconnect envelope so the server side notices promptly instead
// of waiting out a probe deadline.
func (s *session) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		s.disconnect(ctx)
		cancel()
		s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("Websocket error", "error", err)
			}
			return
		}
		if !json.Valid(raw) {
			s.logger.Warn("Dropping non-JSON frame")
			continue
		}
		if err := s.out.Push(ctx, json.RawMessage(raw)); err != nil {
			s.logger.Error("Failed to forward frame", "error", err)
			return
		}
	}
}

// writePump forwards queued server messages to the client, interleaved with
// websocket-level keepalive pings.
func (s *session) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		default:
		}

		raw, err := s.in.Pop(ctx, time.Now().Add(popInterval))
		if err != nil {
			if errors.Is(err, broker.ErrTimeout) {
				continue
			}
			if ctx.Err() == nil {
				s.logger.Error("Failed to read outbound queue", "error", err)
			}
			return
		}
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			s.logger.Error("Failed to write frame", "error", err)
			return
		}
	}
}

// disconnect tells the server side the socket is gone.
func (s *session) disconnect(ctx context.Context) {
	if err := s.out.Push(ctx, protocol.Envelope{MessageType: protocol.TypeDisconnect}); err != nil {
		s.logger.Debug("Failed to push disconnect notice", "error", err)
	}
}
