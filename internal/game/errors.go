package game

import "errors"

// Refusal reasons reported by the move pre-check.
var (
	ErrTableFull      = errors.New("table already holds the maximum number of attacks")
	ErrIsDefender     = errors.New("the defender cannot attack")
	ErrAlreadyPassed  = errors.New("already passed this round")
	ErrNotYourTurn    = errors.New("not your turn to attack")
	ErrRankNotOnTable = errors.New("rank does not match any card on the table")
	ErrNotDefender    = errors.New("only the defender can defend")
	ErrBadSlot        = errors.New("slot has no unanswered attack")
	ErrTooWeak        = errors.New("card does not beat the attack")
	ErrNotTrump       = errors.New("card is neither the attack suit nor trump")
)
