package mcp

import (
	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/net"
)

// Moves lists what the local player may do right now, as far as the local
// rules check can tell.
type Moves struct {
	Attack  []string     `json:"attack,omitempty"`
	Defend  []DefendMove `json:"defend,omitempty"`
	CanPass bool         `json:"can_pass"`
}

// DefendMove is a card that covers the attack in Slot (0-based).
type DefendMove struct {
	Card string `json:"card"`
	Slot int    `json:"slot"`
}

// LegalMoves evaluates every card in the view's hand against the table.
func LegalMoves(tv net.TableView, userID string, passed map[string]bool) *Moves {
	snap := game.Snapshot{
		AttackerID: tv.AttackerID,
		DefenderID: tv.DefenderID,
	}
	if tv.Trump != "" {
		if trump, err := game.ParseCard(tv.Trump); err == nil {
			snap.TrumpCard = &trump
		}
	}

	var slots game.Slots
	for _, sv := range tv.Slots {
		if sv.Index < 0 || sv.Index >= game.MaxSlots || sv.Attack == "" {
			continue
		}
		attack, err := game.ParseCard(sv.Attack)
		if err != nil {
			continue
		}
		slots[sv.Index].Cards = []game.Card{attack}
		if sv.Defense != "" {
			if defense, err := game.ParseCard(sv.Defense); err == nil {
				slots[sv.Index].Cards = append(slots[sv.Index].Cards, defense)
			}
		}
	}

	m := &Moves{}
	for _, id := range tv.Hand {
		card, err := game.ParseCard(id)
		if err != nil {
			continue
		}
		if game.CanAttack(card, snap, slots, userID, passed) {
			m.Attack = append(m.Attack, id)
		}
		for i := range slots {
			if game.CanDefend(card, i, snap, slots, userID) {
				m.Defend = append(m.Defend, DefendMove{Card: id, Slot: i})
			}
		}
	}
	m.CanPass = slots.OccupiedCount() > 0 && !passed[userID]
	return m
}
