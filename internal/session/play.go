package session

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/ledger"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/store"
)

// ready returns the last accepted snapshot or the reason no move can be made.
func (s *Session) ready() (*game.Snapshot, error) {
	if s.prev == nil {
		return nil, ErrNoGame
	}
	if s.finished || s.prev.Status == game.StatusFinished {
		return nil, ErrGameFinished
	}
	return s.prev, nil
}

func (s *Session) playAttack(ctx context.Context, card game.Card) error {
	snap, err := s.ready()
	if err != nil {
		return err
	}
	if !game.ContainsCard(s.store.Hand(), card) {
		return ErrCardNotInHand
	}
	slots := s.store.Slots()
	passed := s.Passed()
	if s.ledger.HasKind(ledger.KindPass) {
		passed[s.cfg.UserID] = true
	}
	if err := game.CheckAttack(card, *snap, slots, s.cfg.UserID, passed); err != nil {
		return err
	}
	slot, ok := game.FirstEmptySlot(slots)
	if !ok {
		return game.ErrTableFull
	}

	a := ledger.Action{
		ID:        ledger.NewID(),
		Kind:      ledger.KindAttack,
		Card:      card,
		HasCard:   true,
		Slot:      slot,
		CreatedAt: s.cfg.Now(),
	}
	if err := s.place(a); err != nil {
		return err
	}
	return s.send(a, func() error { return s.transport.Attack(ctx, card) })
}

func (s *Session) playDefend(ctx context.Context, card game.Card, slot int) error {
	snap, err := s.ready()
	if err != nil {
		return err
	}
	if !game.ContainsCard(s.store.Hand(), card) {
		return ErrCardNotInHand
	}
	if err := game.CheckDefend(card, slot, *snap, s.store.Slots(), s.cfg.UserID); err != nil {
		return err
	}

	a := ledger.Action{
		ID:        ledger.NewID(),
		Kind:      ledger.KindDefend,
		Card:      card,
		HasCard:   true,
		Slot:      slot,
		CreatedAt: s.cfg.Now(),
	}
	if err := s.place(a); err != nil {
		return err
	}
	return s.send(a, func() error { return s.transport.Defend(ctx, card, slot) })
}

func (s *Session) playPass(ctx context.Context) error {
	snap, err := s.ready()
	if err != nil {
		return err
	}
	if s.Passed()[s.cfg.UserID] || s.ledger.HasKind(ledger.KindPass) {
		return game.ErrAlreadyPassed
	}
	if s.store.Slots().OccupiedCount() == 0 {
		return ErrNothingToPass
	}
	if _, ok := snap.Player(s.cfg.UserID); !ok {
		return game.ErrNotYourTurn
	}
	if s.transport == nil {
		return fmt.Errorf("send pass: no transport")
	}

	a := ledger.Action{
		ID:        ledger.NewID(),
		Kind:      ledger.KindPass,
		Slot:      -1,
		CreatedAt: s.cfg.Now(),
	}
	if err := s.ledger.Add(a); err != nil {
		return err
	}
	s.logger.Log(log.NewPassEvent(s.round(), s.cfg.UserID))
	if err := s.transport.Pass(ctx); err != nil {
		s.ledger.Remove(a.ID)
		s.logger.Log(log.NewSendFailedEvent(s.round(), s.cfg.UserID, "pass", err))
		return fmt.Errorf("send pass: %w", err)
	}
	return nil
}

// place moves the card from hand to table and records the action.
func (s *Session) place(a ledger.Action) error {
	if !s.store.RemoveCardFromHand(a.Card) {
		return ErrCardNotInHand
	}
	if !s.store.AddCardToSlot(a.Card, a.Slot) {
		s.store.AddCardToHand(a.Card)
		return game.ErrBadSlot
	}
	if err := s.ledger.Add(a); err != nil {
		s.store.RemoveCardFromSlots(a.Card)
		s.store.AddCardToHand(a.Card)
		return err
	}
	s.logger.Log(log.NewOptimisticPlaceEvent(s.round(), s.cfg.UserID, a.Card.String(), a.Kind.String(), a.Slot))
	return nil
}

// send transmits a placed action; a failed send undoes the placement.
func (s *Session) send(a ledger.Action, fn func() error) error {
	if s.transport == nil {
		s.rollback(a, "offline")
		return fmt.Errorf("send %s: no transport", a.Kind)
	}
	if err := fn(); err != nil {
		s.logger.Log(log.NewSendFailedEvent(s.round(), s.cfg.UserID, a.Kind.String(), err))
		s.rollback(a, "send failed")
		return fmt.Errorf("send %s: %w", a.Kind, err)
	}
	return nil
}

// rollback drops a pending action and puts its card back in hand.
func (s *Session) rollback(a ledger.Action, reason string) {
	s.ledger.Remove(a.ID)
	if !a.HasCard {
		return
	}
	s.store.RemoveCardFromSlots(a.Card)
	s.store.AddCardToHand(a.Card)
	s.store.Animate(store.Intent{Kind: store.IntentReturnToHand, Cards: []game.Card{a.Card}, From: a.Slot})
	s.logger.Log(log.NewRollbackEvent(s.round(), s.cfg.UserID, a.Card.String(), reason))
}

// expire settles actions the server never answered.
func (s *Session) expire() {
	for _, a := range s.ledger.Expired(s.cfg.Now(), s.cfg.PendingTTL) {
		if !a.HasCard {
			s.ledger.Remove(a.ID)
			s.logger.Log(log.NewExpireEvent(s.round(), s.cfg.UserID, "", a.Kind.String()))
			continue
		}
		s.logger.Log(log.NewExpireEvent(s.round(), s.cfg.UserID, a.Card.String(), a.Kind.String()))
		s.rollback(a, "expired")
	}
}
