package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/peterkuimelis/durak/internal/game"
)

// Hub messages follow the JSON hub protocol: every record is a JSON object
// terminated by the ASCII record separator.
const recordSeparator = 0x1E

const (
	msgInvocation = 1
	msgPing       = 6
	msgClose      = 7
)

// Hub method names.
const (
	TargetGameUpdate   = "GameUpdate"
	TargetJoinGame     = "JoinGame"
	TargetAttack       = "Attack"
	TargetDefend       = "Defend"
	TargetPass         = "Pass"
	TargetRequestState = "RequestState"
)

// HubMessage is one decoded record.
type HubMessage struct {
	Type      int               `json:"type"`
	Target    string            `json:"target,omitempty"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type invocation struct {
	Type      int    `json:"type"`
	Target    string `json:"target"`
	Arguments []any  `json:"arguments"`
}

// EncodeRecord marshals v and appends the record separator.
func EncodeRecord(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, recordSeparator), nil
}

// SplitRecords splits a frame into its records, dropping empty ones.
func SplitRecords(frame []byte) [][]byte {
	var out [][]byte
	for _, rec := range bytes.Split(frame, []byte{recordSeparator}) {
		if len(bytes.TrimSpace(rec)) > 0 {
			out = append(out, rec)
		}
	}
	return out
}

// Listener receives everything the hub learns. Calls come from the hub's
// read goroutine, one at a time, in delivery order.
type Listener interface {
	Deliver(u Update)
	Connected(reconnect bool)
	Disconnected(err error)
}

// HubConfig configures the hub connection.
type HubConfig struct {
	URL          string
	GameID       string
	UserID       string
	PingInterval time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

var (
	ErrNotConnected = errors.New("hub not connected")
	ErrHandshake    = errors.New("hub handshake failed")
	ErrClosed       = errors.New("hub closed the connection")
)

// Hub is the client side of the real-time game hub. It reconnects on its
// own; every reconnect is reported so the caller can resync.
type Hub struct {
	cfg      HubConfig
	listener Listener

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewHub creates a hub client. Call Run to connect.
func NewHub(cfg HubConfig, l Listener) *Hub {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = cfg.ReconnectMin
	}
	return &Hub{cfg: cfg, listener: l}
}

// Run connects and keeps the connection alive until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	backoff := h.cfg.ReconnectMin
	reconnect := false
	for {
		connected, err := h.runConn(ctx, reconnect)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			reconnect = true
			backoff = h.cfg.ReconnectMin
		}
		h.listener.Disconnected(err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > h.cfg.ReconnectMax {
			backoff = h.cfg.ReconnectMax
		}
	}
}

// runConn serves one connection. connected reports whether the handshake
// and join succeeded before the connection ended.
func (h *Hub) runConn(ctx context.Context, reconnect bool) (connected bool, err error) {
	conn, _, err := websocket.Dial(ctx, h.dialURL(), nil)
	if err != nil {
		return false, fmt.Errorf("dial hub: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	if err := handshake(ctx, conn); err != nil {
		return false, err
	}

	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.conn = nil
		h.mu.Unlock()
	}()

	if err := h.invoke(ctx, TargetJoinGame, h.cfg.GameID); err != nil {
		return false, fmt.Errorf("join game: %w", err)
	}
	h.listener.Connected(reconnect)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if h.cfg.PingInterval > 0 {
		go h.keepalive(connCtx, conn)
	}

	return true, h.readLoop(connCtx, conn)
}

func (h *Hub) dialURL() string {
	if h.cfg.UserID == "" {
		return h.cfg.URL
	}
	u, err := url.Parse(h.cfg.URL)
	if err != nil {
		return h.cfg.URL
	}
	q := u.Query()
	q.Set("userId", h.cfg.UserID)
	u.RawQuery = q.Encode()
	return u.String()
}

func handshake(ctx context.Context, conn *websocket.Conn) error {
	req, _ := EncodeRecord(map[string]any{"protocol": "json", "version": 1})
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	_, data, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	recs := SplitRecords(data)
	if len(recs) == 0 {
		return fmt.Errorf("%w: empty response", ErrHandshake)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(recs[0], &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: %s", ErrHandshake, resp.Error)
	}
	return nil
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read hub: %w", err)
		}
		for _, rec := range SplitRecords(data) {
			var msg HubMessage
			if err := json.Unmarshal(rec, &msg); err != nil {
				log.Printf("[Hub] Dropping malformed record: %v", err)
				continue
			}
			switch msg.Type {
			case msgInvocation:
				h.handleInvocation(msg)
			case msgPing:
			case msgClose:
				if msg.Error != "" {
					return fmt.Errorf("%w: %s", ErrClosed, msg.Error)
				}
				return ErrClosed
			}
		}
	}
}

func (h *Hub) handleInvocation(msg HubMessage) {
	if msg.Target != TargetGameUpdate {
		return
	}
	for _, arg := range msg.Arguments {
		u, err := DecodeUpdate(arg)
		if err != nil {
			log.Printf("[Hub] Dropping update: %v", err)
			continue
		}
		h.listener.Deliver(u)
	}
}

func (h *Hub) keepalive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	ping, _ := EncodeRecord(map[string]int{"type": msgPing})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Write(ctx, websocket.MessageText, ping); err != nil {
				return
			}
		}
	}
}

// invoke sends a fire-and-forget hub call.
func (h *Hub) invoke(ctx context.Context, target string, args ...any) error {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if args == nil {
		args = []any{}
	}
	data, err := EncodeRecord(invocation{Type: msgInvocation, Target: target, Arguments: args})
	if err != nil {
		return fmt.Errorf("encode %s: %w", target, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send %s: %w", target, err)
	}
	return nil
}

// Attack plays card as a new attack.
func (h *Hub) Attack(ctx context.Context, card game.Card) error {
	return h.invoke(ctx, TargetAttack, card.ID())
}

// Defend covers the attack in slot with card.
func (h *Hub) Defend(ctx context.Context, card game.Card, slot int) error {
	return h.invoke(ctx, TargetDefend, card.ID(), slot)
}

// Pass ends the local player's attack, or takes the table as defender.
func (h *Hub) Pass(ctx context.Context) error {
	return h.invoke(ctx, TargetPass)
}

// RequestState asks the server for a full GameState and PersonalState.
func (h *Hub) RequestState(ctx context.Context) error {
	return h.invoke(ctx, TargetRequestState)
}
