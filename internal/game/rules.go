package game

// The checks below are advisory. They decide whether a move is worth placing
// optimistically; the server may still reject a move that passes them.

// CheckAttack returns nil if the local user may lead or throw in card,
// otherwise the first rule that fails.
func CheckAttack(card Card, state Snapshot, slots Slots, userID string, passed map[string]bool) error {
	occupied := slots.OccupiedCount()
	if occupied >= MaxSlots {
		return ErrTableFull
	}
	if userID == state.DefenderID {
		return ErrIsDefender
	}
	if passed[userID] {
		return ErrAlreadyPassed
	}
	if occupied > 0 {
		// Other attackers may only throw in once the main attacker has passed.
		if !passed[state.AttackerID] && userID != state.AttackerID {
			return ErrNotYourTurn
		}
		if !slots.HasRank(card.Rank) {
			return ErrRankNotOnTable
		}
		return nil
	}
	if userID != state.AttackerID {
		return ErrNotYourTurn
	}
	return nil
}

// CanAttack reports whether CheckAttack accepts the move.
func CanAttack(card Card, state Snapshot, slots Slots, userID string, passed map[string]bool) bool {
	return CheckAttack(card, state, slots, userID, passed) == nil
}

// CheckDefend returns nil if the local user may cover the attack in slotIndex
// with card, otherwise the first rule that fails.
func CheckDefend(card Card, slotIndex int, state Snapshot, slots Slots, userID string) error {
	if userID != state.DefenderID {
		return ErrNotDefender
	}
	if slotIndex < 0 || slotIndex >= MaxSlots || len(slots[slotIndex].Cards) != 1 {
		return ErrBadSlot
	}
	attack := slots[slotIndex].Cards[0]
	if card.Suit == attack.Suit {
		if card.Rank.Value() <= attack.Rank.Value() {
			return ErrTooWeak
		}
		return nil
	}
	if trump, ok := state.TrumpSuit(); !ok || card.Suit != trump {
		return ErrNotTrump
	}
	return nil
}

// CanDefend reports whether CheckDefend accepts the move.
func CanDefend(card Card, slotIndex int, state Snapshot, slots Slots, userID string) bool {
	return CheckDefend(card, slotIndex, state, slots, userID) == nil
}
