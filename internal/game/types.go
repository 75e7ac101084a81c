package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --- Enums ---

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suitNames = [...]string{"Hearts", "Diamonds", "Clubs", "Spades"}

func (s Suit) String() string {
	if s < Hearts || s > Spades {
		return "Unknown"
	}
	return suitNames[s]
}

// Symbol returns the single-glyph form used by the terminal renderer.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

func (s Suit) valid() bool {
	return s >= Hearts && s <= Spades
}

// ParseSuit converts a wire suit name ("Hearts") into a Suit.
func ParseSuit(name string) (Suit, error) {
	for i, n := range suitNames {
		if strings.EqualFold(n, name) {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", name)
}

func (s Suit) MarshalJSON() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("marshal suit %d: out of range", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("suit: %w", err)
	}
	parsed, err := ParseSuit(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rank is ordered by strength: Six is the weakest, Ace the strongest.
type Rank int

const (
	Six Rank = iota
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankNames = [...]string{"Six", "Seven", "Eight", "Nine", "Ten", "Jack", "Queen", "King", "Ace"}

func (r Rank) String() string {
	if r < Six || r > Ace {
		return "Unknown"
	}
	return rankNames[r]
}

// Value returns the numeric strength of the rank (Six=6 ... Ace=14).
func (r Rank) Value() int {
	return int(r) + 6
}

// Short returns the compact label used by the terminal renderer.
func (r Rank) Short() string {
	switch r {
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", r.Value())
	}
}

func (r Rank) valid() bool {
	return r >= Six && r <= Ace
}

// ParseRank converts a wire rank name ("Ace") into a Rank.
func ParseRank(name string) (Rank, error) {
	for i, n := range rankNames {
		if strings.EqualFold(n, name) {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", name)
}

func (r Rank) MarshalJSON() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("marshal rank %d: out of range", int(r))
	}
	return json.Marshal(r.String())
}

func (r *Rank) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	parsed, err := ParseRank(name)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// --- Card ---

// Card is an immutable playing card. Two cards with the same suit and rank
// are the same card: a 36-card deck never holds duplicates.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// ID returns the wire identity of the card, e.g. "Hearts-Ace".
func (c Card) ID() string {
	return c.Suit.String() + "-" + c.Rank.String()
}

func (c Card) String() string {
	return c.Rank.Short() + c.Suit.Symbol()
}

// Valid reports whether both suit and rank are in range.
func (c Card) Valid() bool {
	return c.Suit.valid() && c.Rank.valid()
}

// Beats reports whether c defends against attack under the given trump suit.
func (c Card) Beats(attack Card, trump Suit, hasTrump bool) bool {
	if c.Suit == attack.Suit {
		return c.Rank.Value() > attack.Rank.Value()
	}
	return hasTrump && c.Suit == trump
}

// ParseCard parses a wire identity of the form "<Suit>-<Rank>".
func ParseCard(id string) (Card, error) {
	suitName, rankName, ok := strings.Cut(strings.TrimSpace(id), "-")
	if !ok {
		return Card{}, fmt.Errorf("parse card %q: expected <Suit>-<Rank>", id)
	}
	suit, err := ParseSuit(suitName)
	if err != nil {
		return Card{}, fmt.Errorf("parse card %q: %w", id, err)
	}
	rank, err := ParseRank(rankName)
	if err != nil {
		return Card{}, fmt.Errorf("parse card %q: %w", id, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseShort parses the terminal notation "<rank><suit letter>", e.g. "10h"
// or "Qs". Suit letters are h, d, c and s.
func ParseShort(s string) (Card, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("parse card %q: too short", s)
	}
	var suit Suit
	switch s[len(s)-1] {
	case 'h':
		suit = Hearts
	case 'd':
		suit = Diamonds
	case 'c':
		suit = Clubs
	case 's':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("parse card %q: unknown suit letter", s)
	}
	label := strings.ToUpper(s[:len(s)-1])
	for r := Six; r <= Ace; r++ {
		if r.Short() == label {
			return Card{Suit: suit, Rank: r}, nil
		}
	}
	return Card{}, fmt.Errorf("parse card %q: unknown rank", s)
}

// ParseAny accepts either a wire identity or the short notation.
func ParseAny(s string) (Card, error) {
	if strings.Contains(s, "-") {
		return ParseCard(s)
	}
	return ParseShort(s)
}

// MustParseCard is ParseCard for literals known to be valid.
func MustParseCard(id string) Card {
	c, err := ParseCard(id)
	if err != nil {
		panic(err)
	}
	return c
}

// RemoveCard returns hand without the first occurrence of card.
// The second result reports whether anything was removed.
func RemoveCard(hand []Card, card Card) ([]Card, bool) {
	for i, c := range hand {
		if c == card {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			return append(out, hand[i+1:]...), true
		}
	}
	return hand, false
}

// ContainsCard reports whether cards holds card.
func ContainsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// --- Players and status ---

type Status string

const (
	StatusWaitingForPlayers Status = "WaitingForPlayers"
	StatusInProgress        Status = "InProgress"
	StatusFinished          Status = "Finished"
)

// Player is the public view of a seated player.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CardsCount int    `json:"cardsCount"`
	Passed     bool   `json:"passed,omitempty"`
}
