package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/ledger"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/store"
)

// Transport sends player intents to the game server. Calls are fire and
// forget: the outcome arrives later as a snapshot.
type Transport interface {
	Attack(ctx context.Context, card game.Card) error
	Defend(ctx context.Context, card game.Card, slot int) error
	Pass(ctx context.Context) error
	RequestState(ctx context.Context) error
}

// Config holds the session settings.
type Config struct {
	UserID         string
	PendingTTL     time.Duration
	ExpiryInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

var (
	ErrNoGame        = errors.New("no game state received yet")
	ErrGameFinished  = errors.New("game is finished")
	ErrCardNotInHand = errors.New("card is not in your hand")
	ErrNothingToPass = errors.New("nothing on the table to pass on")
	ErrStopped       = errors.New("session stopped")
)

type msgKind int

const (
	msgAttack msgKind = iota
	msgDefend
	msgPass
	msgUpdate
	msgConnected
	msgDisconnected
	msgExpire
	msgSync
	msgLeave
)

// message is one entry of the session inbox.
type message struct {
	kind      msgKind
	ctx       context.Context
	card      game.Card
	slot      int
	update    net.Update
	reconnect bool
	err       error
	resp      chan error
}

// Session owns the store and the ledger. Every mutation, whether it comes
// from the player or from the server, goes through one inbox and is applied
// by the Run goroutine in arrival order.
type Session struct {
	cfg       Config
	store     *store.Store
	ledger    *ledger.Ledger
	transport Transport
	logger    log.EventLogger

	inbox chan message
	done  chan struct{}
	once  sync.Once

	// Owned by the Run goroutine.
	prev     *game.Snapshot
	resync   bool
	online   bool
	finished bool

	mu     sync.RWMutex
	passed map[string]bool
}

// New creates a session. SetTransport must be called before Run.
func New(cfg Config, st *store.Store, l *ledger.Ledger, logger log.EventLogger) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		cfg:    cfg,
		store:  st,
		ledger: l,
		logger: logger,
		inbox:  make(chan message, 256),
		done:   make(chan struct{}),
		passed: make(map[string]bool),
	}
}

// SetTransport wires the outbound side. The hub needs the session as its
// listener, so the two are created separately and joined here.
func (s *Session) SetTransport(t Transport) {
	s.transport = t
}

// Store returns the store presenters render from.
func (s *Session) Store() *store.Store { return s.store }

// UserID returns the local player's id.
func (s *Session) UserID() string { return s.cfg.UserID }

// Run processes the inbox until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer s.once.Do(func() { close(s.done) })

	var tick <-chan time.Time
	if s.cfg.ExpiryInterval > 0 && s.cfg.PendingTTL > 0 {
		ticker := time.NewTicker(s.cfg.ExpiryInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case m := <-s.inbox:
			err := s.handle(m)
			if m.resp != nil {
				m.resp <- err
			}
		case <-tick:
			s.expire()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) handle(m message) error {
	switch m.kind {
	case msgAttack:
		return s.playAttack(m.ctx, m.card)
	case msgDefend:
		return s.playDefend(m.ctx, m.card, m.slot)
	case msgPass:
		return s.playPass(m.ctx)
	case msgUpdate:
		net.Dispatch(m.update, updateHandler{s})
	case msgConnected:
		s.onConnected(m.reconnect)
	case msgDisconnected:
		s.onDisconnected(m.err)
	case msgExpire:
		s.expire()
	case msgSync:
	case msgLeave:
		s.leave()
	}
	return nil
}

// --- Inbox producers (safe for concurrent use) ---

func (s *Session) post(m message) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

func (s *Session) request(ctx context.Context, m message) error {
	m.ctx = ctx
	m.resp = make(chan error, 1)
	if err := s.post(m); err != nil {
		return err
	}
	select {
	case err := <-m.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

// Attack places card on the first free slot and sends it to the server.
func (s *Session) Attack(ctx context.Context, card game.Card) error {
	return s.request(ctx, message{kind: msgAttack, card: card})
}

// Defend covers the attack in slot with card.
func (s *Session) Defend(ctx context.Context, card game.Card, slot int) error {
	return s.request(ctx, message{kind: msgDefend, card: card, slot: slot})
}

// Pass finishes attacking, or takes the table when defending.
func (s *Session) Pass(ctx context.Context) error {
	return s.request(ctx, message{kind: msgPass})
}

// Deliver implements net.Listener.
func (s *Session) Deliver(u net.Update) {
	_ = s.post(message{kind: msgUpdate, update: u})
}

// Connected implements net.Listener.
func (s *Session) Connected(reconnect bool) {
	_ = s.post(message{kind: msgConnected, reconnect: reconnect})
}

// Disconnected implements net.Listener.
func (s *Session) Disconnected(err error) {
	_ = s.post(message{kind: msgDisconnected, err: err})
}

// ExpireNow runs a pending-action expiry pass without waiting for the ticker.
func (s *Session) ExpireNow() {
	_ = s.post(message{kind: msgExpire})
}

// Sync waits until every message posted before it has been processed.
func (s *Session) Sync(ctx context.Context) error {
	return s.request(ctx, message{kind: msgSync})
}

// Leave forgets the current game. Pending actions are dropped and the store
// is emptied; moves fail with ErrNoGame until the next snapshot.
func (s *Session) Leave(ctx context.Context) error {
	return s.request(ctx, message{kind: msgLeave})
}

// View renders the table for the local player.
func (s *Session) View() net.TableView {
	return net.BuildTableView(s.store, s.cfg.UserID, s.ledger.Len(), s.Passed())
}

// Passed returns the players known to have passed this round.
func (s *Session) Passed() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.passed))
	for k, v := range s.passed {
		out[k] = v
	}
	return out
}

func (s *Session) markPassed(id string) {
	s.mu.Lock()
	s.passed[id] = true
	s.mu.Unlock()
}

func (s *Session) resetPassed() {
	s.mu.Lock()
	s.passed = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Session) round() int {
	if s.prev == nil {
		return 0
	}
	return s.prev.Rounds
}
