package store

import "github.com/peterkuimelis/durak/internal/game"

// ChangeKind identifies what a Change describes.
type ChangeKind int

const (
	ChangeSlotAdd ChangeKind = iota
	ChangeSlotRemove
	ChangeSlots
	ChangeTableCleared
	ChangeHandAdd
	ChangeHandRemove
	ChangeHand
	ChangePlayers
	ChangeSnapshot
	ChangeIntent
	ChangeNotice
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSlotAdd:
		return "slot_add"
	case ChangeSlotRemove:
		return "slot_remove"
	case ChangeSlots:
		return "slots"
	case ChangeTableCleared:
		return "table_cleared"
	case ChangeHandAdd:
		return "hand_add"
	case ChangeHandRemove:
		return "hand_remove"
	case ChangeHand:
		return "hand"
	case ChangePlayers:
		return "players"
	case ChangeSnapshot:
		return "snapshot"
	case ChangeIntent:
		return "intent"
	case ChangeNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// IntentKind is an animation the presentation layer should play.
type IntentKind int

const (
	IntentNone IntentKind = iota
	// IntentSweepTable: the round was beaten, table cards go to the discard pile.
	IntentSweepTable
	// IntentMoveToDefender: the defender took, table cards fly to their hand.
	IntentMoveToDefender
	// IntentResync: the table was rebuilt without animation.
	IntentResync
	// IntentReturnToHand: an optimistic card goes back into the local hand.
	IntentReturnToHand
	// IntentRelocate: a card jumps from one slot to another.
	IntentRelocate
)

func (k IntentKind) String() string {
	switch k {
	case IntentSweepTable:
		return "sweep_table"
	case IntentMoveToDefender:
		return "move_to_defender"
	case IntentResync:
		return "resync"
	case IntentReturnToHand:
		return "return_to_hand"
	case IntentRelocate:
		return "relocate"
	default:
		return "none"
	}
}

// Intent describes an animation derived from reconciliation.
type Intent struct {
	Kind      IntentKind
	Cards     []game.Card
	Recipient string // player id for IntentMoveToDefender
	From, To  int    // slot indexes for IntentRelocate
}

// Change is published to subscribers after every effective mutation.
type Change struct {
	Kind   ChangeKind
	Card   game.Card
	Slot   int
	Intent Intent
	Notice string
}
