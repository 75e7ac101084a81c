package net

import (
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/store"
)

// TableView is the table from the local player's perspective, shared by
// every front end.
type TableView struct {
	Status     string       `json:"status"`
	Round      int          `json:"round"`
	AttackerID string       `json:"attacker_id"`
	DefenderID string       `json:"defender_id"`
	Role       string       `json:"role"`
	Trump      string       `json:"trump,omitempty"`
	DeckCount  int          `json:"deck_count"`
	Deadline   *time.Time   `json:"deadline,omitempty"`
	Slots      []SlotView   `json:"slots"`
	Hand       []string     `json:"hand"`
	Players    []PlayerView `json:"players"`
	Pending    int          `json:"pending"`
}

// SlotView describes one table slot.
type SlotView struct {
	Index   int    `json:"index"`
	Attack  string `json:"attack,omitempty"`
	Defense string `json:"defense,omitempty"`
}

// PlayerView is one seated player.
type PlayerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CardsCount int    `json:"cards_count"`
	Passed     bool   `json:"passed,omitempty"`
	You        bool   `json:"you,omitempty"`
}

// Role names the local player's part in the current round.
func Role(snap game.Snapshot, userID string) string {
	switch userID {
	case snap.AttackerID:
		return "attacker"
	case snap.DefenderID:
		return "defender"
	default:
		return "thrower"
	}
}

// BuildTableView renders the store for userID.
func BuildTableView(st *store.Store, userID string, pending int, passed map[string]bool) TableView {
	snap, _ := st.Snapshot()
	tv := TableView{
		Status:     string(st.Status()),
		Round:      snap.Rounds,
		AttackerID: snap.AttackerID,
		DefenderID: snap.DefenderID,
		Role:       Role(snap, userID),
		DeckCount:  snap.DeckCardsCount,
		Pending:    pending,
		Hand:       []string{},
	}
	if snap.TrumpCard != nil {
		tv.Trump = snap.TrumpCard.ID()
	}
	if d := snap.Deadline(); !d.IsZero() {
		tv.Deadline = &d
	}

	for i, s := range st.Slots() {
		sv := SlotView{Index: i}
		if c, ok := s.Attack(); ok {
			sv.Attack = c.ID()
		}
		if c, ok := s.Defense(); ok {
			sv.Defense = c.ID()
		}
		tv.Slots = append(tv.Slots, sv)
	}
	for _, c := range st.Hand() {
		tv.Hand = append(tv.Hand, c.ID())
	}
	for _, p := range st.Players() {
		tv.Players = append(tv.Players, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			CardsCount: p.CardsCount,
			Passed:     p.Passed || passed[p.ID],
			You:        p.ID == userID,
		})
	}
	return tv
}
