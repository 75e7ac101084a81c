package reconcile

import "github.com/peterkuimelis/durak/internal/game"

// Boundary classifies the transition between two consecutive snapshots.
type Boundary int

const (
	BoundaryNone Boundary = iota
	// BoundaryBeaten: every attack was covered and the table went to the discard pile.
	BoundaryBeaten
	// BoundaryTaken: the defender picked up the table.
	BoundaryTaken
)

func (b Boundary) String() string {
	switch b {
	case BoundaryBeaten:
		return "beaten"
	case BoundaryTaken:
		return "taken"
	default:
		return "none"
	}
}

// ClassifyBoundary infers whether a round ended between prev and next.
// The server does not say why a round ended, so the cause is derived from
// the discard pile size: it only grows when a round is beaten. A taken round
// moves the table into a hand, so the pile stays the same while the round
// counter advances.
func ClassifyBoundary(prev *game.Snapshot, next game.Snapshot) Boundary {
	if prev == nil {
		return BoundaryNone
	}
	before, after := prev.OffTableCount(), next.OffTableCount()
	switch {
	case after > before:
		return BoundaryBeaten
	case after == before && next.Rounds > prev.Rounds:
		return BoundaryTaken
	default:
		return BoundaryNone
	}
}
