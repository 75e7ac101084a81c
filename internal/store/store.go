package store

import (
	"sort"
	"sync"

	"github.com/peterkuimelis/durak/internal/game"
)

// Store is the local mirror of the table, the local hand and the player list.
// It is the single source of truth for rendering. Mutators never fail:
// replaying a mutation with the same arguments leaves the store unchanged.
//
// Only the session goroutine writes; presenters read from their own
// goroutines and observe changes through Subscribe.
type Store struct {
	mu       sync.RWMutex
	slots    game.Slots
	hand     []game.Card
	players  []game.Player
	snapshot *game.Snapshot

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates an empty store.
func New() *Store {
	return &Store{subs: make(map[int]func(Change))}
}

// Subscribe registers fn for every published change and returns a function
// that removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// publish must be called without mu held so subscribers may read the store.
func (s *Store) publish(changes ...Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, ch := range changes {
		for _, fn := range fns {
			fn(ch)
		}
	}
}

// --- Mutators ---

// AddCardToSlot appends card to the slot. It is a no-op when the slot index
// is out of range, the slot is full, or the card is already on the table.
func (s *Store) AddCardToSlot(card game.Card, slot int) bool {
	s.mu.Lock()
	if slot < 0 || slot >= game.MaxSlots || len(s.slots[slot].Cards) >= 2 {
		s.mu.Unlock()
		return false
	}
	if _, _, found := s.slots.Find(card); found {
		s.mu.Unlock()
		return false
	}
	s.slots[slot].Cards = append(s.slots[slot].Cards, card)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeSlotAdd, Card: card, Slot: slot})
	return true
}

// RemoveCardFromSlots takes card off the table wherever it is. Removing an
// attacking card also removes the slot's defense, which can no longer stand
// on its own; the removed defense is returned in the second result.
func (s *Store) RemoveCardFromSlots(card game.Card) (slot int, orphan *game.Card, ok bool) {
	s.mu.Lock()
	slot, pos, found := s.slots.Find(card)
	if !found {
		s.mu.Unlock()
		return -1, nil, false
	}
	cards := s.slots[slot].Cards
	if pos == 0 && len(cards) == 2 {
		d := cards[1]
		orphan = &d
	}
	if pos == 0 {
		s.slots[slot] = game.Slot{}
	} else {
		s.slots[slot].Cards = cards[:1:1]
	}
	s.mu.Unlock()

	changes := []Change{{Kind: ChangeSlotRemove, Card: card, Slot: slot}}
	if orphan != nil {
		changes = append(changes, Change{Kind: ChangeSlotRemove, Card: *orphan, Slot: slot})
	}
	s.publish(changes...)
	return slot, orphan, true
}

// RemoveCardFromHand removes card from the hand. Removing a card that is not
// in the hand is a no-op.
func (s *Store) RemoveCardFromHand(card game.Card) bool {
	s.mu.Lock()
	hand, removed := game.RemoveCard(s.hand, card)
	s.hand = hand
	s.mu.Unlock()

	if removed {
		s.publish(Change{Kind: ChangeHandRemove, Card: card})
	}
	return removed
}

// AddCardToHand appends cards to the hand, skipping cards already held and
// cards currently on the table.
func (s *Store) AddCardToHand(cards ...game.Card) int {
	s.mu.Lock()
	var added []Change
	for _, c := range cards {
		if game.ContainsCard(s.hand, c) {
			continue
		}
		if _, _, onTable := s.slots.Find(c); onTable {
			continue
		}
		s.hand = append(s.hand, c)
		added = append(added, Change{Kind: ChangeHandAdd, Card: c})
	}
	s.mu.Unlock()

	s.publish(added...)
	return len(added)
}

// SetHand replaces the hand wholesale, dropping duplicates.
func (s *Store) SetHand(cards []game.Card) {
	s.mu.Lock()
	hand := make([]game.Card, 0, len(cards))
	for _, c := range cards {
		if !game.ContainsCard(hand, c) {
			hand = append(hand, c)
		}
	}
	s.hand = hand
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeHand})
}

// ClearTable empties every slot.
func (s *Store) ClearTable() {
	s.mu.Lock()
	if s.slots.CardCount() == 0 {
		s.mu.Unlock()
		return
	}
	s.slots = game.Slots{}
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeTableCleared})
}

// SetSlots replaces the table wholesale.
func (s *Store) SetSlots(slots game.Slots) {
	s.mu.Lock()
	if s.slots.Equal(slots) {
		s.mu.Unlock()
		return
	}
	s.slots = slots.Clone()
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeSlots})
}

// SetSnapshot records the last authoritative snapshot, including its player list.
func (s *Store) SetSnapshot(snap game.Snapshot) {
	s.mu.Lock()
	cp := snap
	cp.TableCards = append([]game.TableCard(nil), snap.TableCards...)
	cp.Players = append([]game.Player(nil), snap.Players...)
	s.snapshot = &cp
	s.players = append([]game.Player(nil), snap.Players...)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeSnapshot})
}

// Animate publishes an animation intent without touching state.
func (s *Store) Animate(intent Intent) {
	if intent.Kind == IntentNone {
		return
	}
	s.publish(Change{Kind: ChangeIntent, Intent: intent})
}

// Notify publishes a user-facing notice such as a toast message.
func (s *Store) Notify(msg string) {
	s.publish(Change{Kind: ChangeNotice, Notice: msg})
}

// Reset drops all state, used when leaving a game.
func (s *Store) Reset() {
	s.mu.Lock()
	s.slots = game.Slots{}
	s.hand = nil
	s.players = nil
	s.snapshot = nil
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeSlots}, Change{Kind: ChangeHand}, Change{Kind: ChangePlayers})
}

// --- Accessors (all return copies) ---

func (s *Store) Slots() game.Slots {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots.Clone()
}

func (s *Store) Hand() []game.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]game.Card(nil), s.hand...)
}

func (s *Store) Players() []game.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]game.Player(nil), s.players...)
}

// Snapshot returns the last authoritative snapshot.
func (s *Store) Snapshot() (game.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return game.Snapshot{}, false
	}
	cp := *s.snapshot
	cp.TableCards = append([]game.TableCard(nil), s.snapshot.TableCards...)
	cp.Players = append([]game.Player(nil), s.snapshot.Players...)
	return cp, true
}

// Status returns the game status of the last snapshot.
func (s *Store) Status() game.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return game.StatusWaitingForPlayers
	}
	return s.snapshot.Status
}
