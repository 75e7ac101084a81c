package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/reconcile"
)

// updateHandler applies server updates on the Run goroutine.
type updateHandler struct {
	s *Session
}

var _ net.Handler = updateHandler{}

func (h updateHandler) HandleGameState(u net.GameState) {
	s := h.s
	snap := u.Snapshot
	if err := snap.Validate(); err != nil {
		s.logger.Log(log.NewSnapshotRejectedEvent(s.round(), err))
		return
	}

	res := reconcile.Reconcile(reconcile.Input{
		Prev:    s.prev,
		Next:    snap,
		Slots:   s.store.Slots(),
		Hand:    s.store.Hand(),
		Pending: s.ledger.All(),
		Resync:  s.resync,
	})
	reconcile.Apply(s.store, s.ledger, res)
	s.store.SetSnapshot(snap)

	round := snap.Rounds
	s.logger.Log(log.NewSnapshotEvent(round, snap.AttackerID, snap.DefenderID, snap.TableCardCount(), snap.DeckCardsCount))
	s.logResult(round, res)

	if res.Boundary != reconcile.BoundaryNone || s.prev == nil || snap.Rounds != s.prev.Rounds {
		s.resetPassed()
	}
	for _, p := range snap.Players {
		if p.Passed {
			s.markPassed(p.ID)
		}
	}

	s.prev = &snap
	s.resync = false
	if snap.Status == game.StatusFinished {
		s.finish()
	}
}

func (s *Session) logResult(round int, res reconcile.Result) {
	switch res.Boundary {
	case reconcile.BoundaryBeaten:
		s.logger.Log(log.NewRoundBeatenEvent(round, cardNames(res.Intent.Cards)))
	case reconcile.BoundaryTaken:
		s.logger.Log(log.NewRoundTakenEvent(round, res.Intent.Recipient, cardNames(res.Intent.Cards)))
	}
	if res.Resynced {
		s.logger.Log(log.NewResyncEvent(round, res.Slots.CardCount()))
	}

	for _, r := range res.Resolutions {
		a := r.Action
		if !a.HasCard {
			continue
		}
		switch r.Outcome {
		case reconcile.OutcomeConfirmed:
			s.logger.Log(log.NewConfirmEvent(round, s.cfg.UserID, a.Card.String(), r.To))
		case reconcile.OutcomeRelocated:
			s.logger.Log(log.NewRelocateEvent(round, s.cfg.UserID, a.Card.String(), r.From, r.To))
		case reconcile.OutcomeRolledBack:
			reason := "not on server table"
			if res.Boundary != reconcile.BoundaryNone {
				reason = "round ended"
			}
			s.logger.Log(log.NewRollbackEvent(round, s.cfg.UserID, a.Card.String(), reason))
		}
	}

	for _, op := range res.Ops {
		switch {
		case op.Kind == reconcile.OpPlace:
			s.logger.Log(log.NewSlotFillEvent(round, op.Card.String(), op.Slot))
		case op.Kind == reconcile.OpRemove && !op.ToHand:
			s.logger.Log(log.NewSlotClearEvent(round, op.Card.String(), op.Slot))
		}
	}
}

func (h updateHandler) HandlePersonalState(u net.PersonalState) {
	s := h.s
	if u.PlayerID != "" && u.PlayerID != s.cfg.UserID {
		return
	}
	hand := reconcile.ReconcileHand(u.Cards, s.ledger.All())
	s.store.SetHand(hand)
	s.logger.Log(log.NewHandEvent(s.round(), s.cfg.UserID, len(hand)))
}

func (h updateHandler) HandlePassedState(u net.PassedState) {
	s := h.s
	if !u.Passed && !u.Took {
		return
	}
	s.markPassed(u.PlayerID)
	s.logger.Log(log.NewPlayerPassedEvent(s.round(), u.PlayerID, u.Took))
}

func (h updateHandler) HandleCardsMoved(u net.CardsMoved) {
	s := h.s
	kind := "attack"
	if u.AsDefense {
		kind = "defense"
	}
	s.logger.Log(log.NewHintEvent(s.round(), u.PlayerID, "moved",
		fmt.Sprintf("%s %s in slot %d", kind, strings.Join(cardNames(u.Cards), ", "), u.SlotIndex+1)))
}

func (h updateHandler) HandleCardsDealt(u net.CardsDealt) {
	s := h.s
	for id, n := range u.Counts {
		if n > 0 {
			s.logger.Log(log.NewHintEvent(s.round(), id, "dealt", fmt.Sprintf("%d card(s)", n)))
		}
	}
}

func (h updateHandler) HandlePlayerAction(u net.PlayerAction) {
	s := h.s
	details := u.Action
	if u.Card != nil {
		details += " " + u.Card.String()
	}
	s.logger.Log(log.NewHintEvent(s.round(), u.PlayerID, "action", details))
}

func (h updateHandler) HandleActionResult(u net.ActionResult) {
	s := h.s
	if u.Success || (u.PlayerID != "" && u.PlayerID != s.cfg.UserID) {
		return
	}
	// The next snapshot rolls the card back; this only informs the player.
	s.logger.Log(log.NewActionRejectedEvent(s.round(), s.cfg.UserID, u.ErrorCode, u.ErrorMessage))
	msg := u.ErrorMessage
	if msg == "" {
		msg = u.ErrorCode
	}
	s.store.Notify(fmt.Sprintf("%s rejected: %s", u.Action, msg))
}

func (h updateHandler) HandleRoundEnded(u net.RoundEnded) {
	s := h.s
	s.logger.Log(log.NewHintEvent(s.round(), u.DefenderID, "round", u.Reason))
}

func (h updateHandler) HandleGameFinished(u net.GameFinished) {
	s := h.s
	s.logger.Log(log.NewGameFinishedEvent(s.round(), u.LoserID))
	s.finish()
	if u.LoserID == "" {
		s.store.Notify("game over: draw")
	} else if u.LoserID == s.cfg.UserID {
		s.store.Notify("game over: you are the durak")
	} else {
		s.store.Notify(fmt.Sprintf("game over: %s is the durak", u.LoserID))
	}
}

// finish stops accepting moves and returns any pending cards to hand.
func (s *Session) finish() {
	if s.finished {
		return
	}
	s.finished = true
	for _, a := range s.ledger.DrainAll() {
		s.rollback(a, "game finished")
	}
}

func (s *Session) leave() {
	s.ledger.DrainAll()
	s.store.Reset()
	s.resetPassed()
	s.prev = nil
	s.finished = false
	s.resync = false
}

func (s *Session) onConnected(reconnect bool) {
	s.online = true
	s.logger.Log(log.NewTransportUpEvent(reconnect))
	if !reconnect {
		return
	}
	s.resync = true
	s.store.Notify("reconnected")
	if s.transport == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.transport.RequestState(ctx); err != nil {
		s.logger.Log(log.NewSendFailedEvent(s.round(), s.cfg.UserID, "state request", err))
	}
}

func (s *Session) onDisconnected(err error) {
	if !s.online {
		return
	}
	s.online = false
	s.logger.Log(log.NewTransportDownEvent(err))
	s.store.Notify("connection lost, reconnecting")
}

func cardNames(cards []game.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
