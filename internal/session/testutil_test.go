package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/ledger"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/store"
)

// fakeTransport records every call and fails them while fail is set.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (f *fakeTransport) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeTransport) Attack(_ context.Context, card game.Card) error {
	return f.record("Attack " + card.ID())
}

func (f *fakeTransport) Defend(_ context.Context, card game.Card, slot int) error {
	return f.record(fmt.Sprintf("Defend %s %d", card.ID(), slot))
}

func (f *fakeTransport) Pass(context.Context) error {
	return f.record("Pass")
}

func (f *fakeTransport) RequestState(context.Context) error {
	return f.record("RequestState")
}

func (f *fakeTransport) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// harness runs a session for userID against a fake transport.
type harness struct {
	t      *testing.T
	s      *Session
	tr     *fakeTransport
	logger *log.MemoryLogger
	clock  *clock
}

func newHarness(t *testing.T, userID string) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		tr:     &fakeTransport{},
		logger: log.NewMemoryLogger(),
		clock:  &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.s = New(Config{
		UserID:     userID,
		PendingTTL: 10 * time.Second,
		Now:        h.clock.Now,
	}, store.New(), ledger.New(), h.logger)
	h.s.SetTransport(h.tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *harness) sync() {
	h.t.Helper()
	if err := h.s.Sync(context.Background()); err != nil {
		h.t.Fatal(err)
	}
}

// deliver hands updates to the session and waits until they are applied.
func (h *harness) deliver(updates ...net.Update) {
	h.t.Helper()
	for _, u := range updates {
		h.s.Deliver(u)
	}
	h.sync()
}

// start delivers a first snapshot and the local hand.
func (h *harness) start(snap game.Snapshot, hand ...string) {
	h.t.Helper()
	cards := make([]game.Card, len(hand))
	for i, s := range hand {
		cards[i] = cd(s)
	}
	h.deliver(net.GameState{Snapshot: snap}, net.PersonalState{PlayerID: h.s.UserID(), Cards: cards})
}

func (h *harness) count(t log.EventType) int {
	return len(h.logger.EventsOfType(t))
}

func (h *harness) inHand(card string) bool {
	return game.ContainsCard(h.s.Store().Hand(), cd(card))
}

func (h *harness) onTable(card string) bool {
	_, _, ok := h.s.Store().Slots().Find(cd(card))
	return ok
}

func cd(s string) game.Card {
	c, err := game.ParseShort(s)
	if err != nil {
		panic(err)
	}
	return c
}

func tc(slot int, attack, defense string) game.TableCard {
	t := game.TableCard{Card: cd(attack), SlotIndex: slot}
	if defense != "" {
		d := cd(defense)
		t.DefendingCard = &d
	}
	return t
}

// snapshot builds a two-player snapshot: alice attacks bob, clubs are trump.
func snapshot(rounds, deck, alice, bob int, table ...game.TableCard) game.Snapshot {
	trump := cd("7c")
	return game.Snapshot{
		AttackerID:     "alice",
		DefenderID:     "bob",
		TableCards:     table,
		TrumpCard:      &trump,
		DeckCardsCount: deck,
		Rounds:         rounds,
		Status:         game.StatusInProgress,
		Players: []game.Player{
			{ID: "alice", Name: "Alice", CardsCount: alice},
			{ID: "bob", Name: "Bob", CardsCount: bob},
		},
	}
}
