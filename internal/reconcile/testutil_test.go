package reconcile

import (
	"testing"
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/ledger"
	"github.com/peterkuimelis/durak/internal/store"
)

func cd(s string) game.Card {
	c, err := game.ParseShort(s)
	if err != nil {
		panic(err)
	}
	return c
}

// tc is a table entry; defense may be empty.
func tc(slot int, attack, defense string) game.TableCard {
	t := game.TableCard{Card: cd(attack), SlotIndex: slot}
	if defense != "" {
		d := cd(defense)
		t.DefendingCard = &d
	}
	return t
}

// snapshot builds a two-player snapshot: alice attacks bob.
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

// fixture is a store and ledger primed with a previous snapshot.
type fixture struct {
	t      *testing.T
	store  *store.Store
	ledger *ledger.Ledger
	prev   *game.Snapshot
}

func newFixture(t *testing.T, prev game.Snapshot, hand ...string) *fixture {
	t.Helper()
	f := &fixture{t: t, store: store.New(), ledger: ledger.New()}
	f.apply(prev)
	for _, h := range hand {
		f.store.AddCardToHand(cd(h))
	}
	return f
}

// play places a card optimistically the way the session does.
func (f *fixture) play(kind ledger.Kind, card string, slot int) ledger.Action {
	f.t.Helper()
	c := cd(card)
	if !f.store.RemoveCardFromHand(c) {
		f.t.Fatalf("%s is not in hand", card)
	}
	if !f.store.AddCardToSlot(c, slot) {
		f.t.Fatalf("could not place %s in slot %d", card, slot)
	}
	a := ledger.Action{ID: ledger.NewID(), Kind: kind, Card: c, HasCard: true, Slot: slot, CreatedAt: time.Now()}
	if err := f.ledger.Add(a); err != nil {
		f.t.Fatal(err)
	}
	return a
}

func (f *fixture) reconcile(next game.Snapshot) Result {
	return Reconcile(Input{
		Prev:    f.prev,
		Next:    next,
		Slots:   f.store.Slots(),
		Hand:    f.store.Hand(),
		Pending: f.ledger.All(),
	})
}

func (f *fixture) apply(next game.Snapshot) Result {
	res := f.reconcile(next)
	Apply(f.store, f.ledger, res)
	f.prev = &next
	return res
}

func (f *fixture) handCount(card string) int {
	n := 0
	for _, c := range f.store.Hand() {
		if c == cd(card) {
			n++
		}
	}
	return n
}

func (f *fixture) onTable(card string) bool {
	_, _, ok := f.store.Slots().Find(cd(card))
	return ok
}

// watchIntents records the animation intents the store publishes from now on.
func (f *fixture) watchIntents() func() []store.Intent {
	var intents []store.Intent
	f.store.Subscribe(func(c store.Change) {
		if c.Kind == store.ChangeIntent {
			intents = append(intents, c.Intent)
		}
	})
	return func() []store.Intent { return intents }
}
