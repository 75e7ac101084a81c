package game

import (
	"errors"
	"fmt"
	"time"
)

// --- Table slots ---

// Slot is one attack position on the table. It holds no card, one
// unanswered attacking card, or an attacking card followed by its defense.
type Slot struct {
	Cards []Card `json:"cards"`
}

func (s Slot) Empty() bool    { return len(s.Cards) == 0 }
func (s Slot) Occupied() bool { return len(s.Cards) > 0 }
func (s Slot) Beaten() bool   { return len(s.Cards) == 2 }

// Attack returns the attacking card, if any.
func (s Slot) Attack() (Card, bool) {
	if len(s.Cards) == 0 {
		return Card{}, false
	}
	return s.Cards[0], true
}

// Defense returns the defending card, if any.
func (s Slot) Defense() (Card, bool) {
	if len(s.Cards) < 2 {
		return Card{}, false
	}
	return s.Cards[1], true
}

func (s Slot) clone() Slot {
	if s.Cards == nil {
		return Slot{}
	}
	return Slot{Cards: append([]Card(nil), s.Cards...)}
}

func (s Slot) equal(o Slot) bool {
	if len(s.Cards) != len(o.Cards) {
		return false
	}
	for i := range s.Cards {
		if s.Cards[i] != o.Cards[i] {
			return false
		}
	}
	return true
}

// Slots is the fixed table of MaxSlots positions.
type Slots [MaxSlots]Slot

// Clone returns a deep copy.
func (sl Slots) Clone() Slots {
	var out Slots
	for i, s := range sl {
		out[i] = s.clone()
	}
	return out
}

// Equal reports whether both tables hold the same cards in the same positions.
func (sl Slots) Equal(o Slots) bool {
	for i := range sl {
		if !sl[i].equal(o[i]) {
			return false
		}
	}
	return true
}

// OccupiedCount returns how many slots hold at least one card.
func (sl Slots) OccupiedCount() int {
	n := 0
	for _, s := range sl {
		if s.Occupied() {
			n++
		}
	}
	return n
}

// CardCount returns the number of cards on the table.
func (sl Slots) CardCount() int {
	n := 0
	for _, s := range sl {
		n += len(s.Cards)
	}
	return n
}

// Cards returns every card on the table, slot by slot.
func (sl Slots) Cards() []Card {
	var out []Card
	for _, s := range sl {
		out = append(out, s.Cards...)
	}
	return out
}

// Find locates card on the table. pos is 0 for an attacking card and 1 for a defense.
func (sl Slots) Find(card Card) (slot, pos int, ok bool) {
	for i, s := range sl {
		for j, c := range s.Cards {
			if c == card {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// HasRank reports whether any card on the table has rank r.
func (sl Slots) HasRank(r Rank) bool {
	for _, s := range sl {
		for _, c := range s.Cards {
			if c.Rank == r {
				return true
			}
		}
	}
	return false
}

// FirstEmptySlot returns the lowest empty slot index.
func FirstEmptySlot(sl Slots) (int, bool) {
	for i, s := range sl {
		if s.Empty() {
			return i, true
		}
	}
	return -1, false
}

// --- Authoritative snapshot ---

// TableCard is one occupied slot as reported by the server.
type TableCard struct {
	Card          Card  `json:"card"`
	DefendingCard *Card `json:"defendingCard,omitempty"`
	SlotIndex     int   `json:"slotIndex"`
}

// SlotsFromTable builds slot state from the server's table cards.
// Entries with an out-of-range index are skipped; Validate rejects them first.
func SlotsFromTable(table []TableCard) Slots {
	var sl Slots
	for _, tc := range table {
		if tc.SlotIndex < 0 || tc.SlotIndex >= MaxSlots {
			continue
		}
		cards := []Card{tc.Card}
		if tc.DefendingCard != nil {
			cards = append(cards, *tc.DefendingCard)
		}
		sl[tc.SlotIndex] = Slot{Cards: cards}
	}
	return sl
}

// Snapshot is the complete game state pushed by the server. It supersedes
// any local speculative state.
type Snapshot struct {
	AttackerID     string      `json:"attackerId"`
	DefenderID     string      `json:"defenderId"`
	TableCards     []TableCard `json:"tableCards"`
	TrumpCard      *Card       `json:"trumpCard,omitempty"`
	DeckCardsCount int         `json:"deckCardsCount"`
	Rounds         int         `json:"rounds"`
	Status         Status      `json:"status"`
	Players        []Player    `json:"players"`
	MovedAt        time.Time   `json:"movedAt"`
	MoveTime       int         `json:"moveTime"` // seconds allowed per move
}

// Slots returns the table as slot state.
func (s Snapshot) Slots() Slots {
	return SlotsFromTable(s.TableCards)
}

// TableCardCount returns the number of cards on the table.
func (s Snapshot) TableCardCount() int {
	n := 0
	for _, tc := range s.TableCards {
		n++
		if tc.DefendingCard != nil {
			n++
		}
	}
	return n
}

// HandsCount returns the sum of every player's card count.
func (s Snapshot) HandsCount() int {
	n := 0
	for _, p := range s.Players {
		n += p.CardsCount
	}
	return n
}

// OffTableCount returns the number of cards that are neither in the deck,
// in any hand, nor on the table: the discard pile.
func (s Snapshot) OffTableCount() int {
	return DeckSize - s.DeckCardsCount - s.HandsCount() - s.TableCardCount()
}

// TrumpSuit returns the trump suit when the trump card is known.
func (s Snapshot) TrumpSuit() (Suit, bool) {
	if s.TrumpCard == nil {
		return 0, false
	}
	return s.TrumpCard.Suit, true
}

// Player returns the player with the given id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Deadline returns when the current move times out, or the zero time if unknown.
func (s Snapshot) Deadline() time.Time {
	if s.MovedAt.IsZero() || s.MoveTime <= 0 {
		return time.Time{}
	}
	return s.MovedAt.Add(time.Duration(s.MoveTime) * time.Second)
}

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Validate checks the structural invariants of a snapshot. A snapshot that
// fails validation must be dropped as a whole.
func (s Snapshot) Validate() error {
	if len(s.TableCards) > MaxSlots {
		return fmt.Errorf("%w: %d table entries", ErrInvalidSnapshot, len(s.TableCards))
	}
	if s.DeckCardsCount < 0 || s.DeckCardsCount > DeckSize {
		return fmt.Errorf("%w: deck count %d", ErrInvalidSnapshot, s.DeckCardsCount)
	}
	if s.Rounds < 0 {
		return fmt.Errorf("%w: rounds %d", ErrInvalidSnapshot, s.Rounds)
	}
	for _, p := range s.Players {
		if p.CardsCount < 0 {
			return fmt.Errorf("%w: player %s has %d cards", ErrInvalidSnapshot, p.ID, p.CardsCount)
		}
	}

	seenSlot := make(map[int]bool, len(s.TableCards))
	seenCard := make(map[Card]bool, 2*len(s.TableCards))
	addCard := func(c Card) error {
		if !c.Valid() {
			return fmt.Errorf("%w: card %v out of range", ErrInvalidSnapshot, c)
		}
		if seenCard[c] {
			return fmt.Errorf("%w: %s appears twice", ErrInvalidSnapshot, c.ID())
		}
		seenCard[c] = true
		return nil
	}
	for _, tc := range s.TableCards {
		if tc.SlotIndex < 0 || tc.SlotIndex >= MaxSlots {
			return fmt.Errorf("%w: slot index %d", ErrInvalidSnapshot, tc.SlotIndex)
		}
		if seenSlot[tc.SlotIndex] {
			return fmt.Errorf("%w: slot %d reported twice", ErrInvalidSnapshot, tc.SlotIndex)
		}
		seenSlot[tc.SlotIndex] = true
		if err := addCard(tc.Card); err != nil {
			return err
		}
		if tc.DefendingCard != nil {
			if err := addCard(*tc.DefendingCard); err != nil {
				return err
			}
		}
	}
	if s.TrumpCard != nil && !s.TrumpCard.Valid() {
		return fmt.Errorf("%w: trump card out of range", ErrInvalidSnapshot)
	}
	if n := s.OffTableCount(); n < 0 {
		return fmt.Errorf("%w: card counts exceed the deck by %d", ErrInvalidSnapshot, -n)
	}
	return nil
}
