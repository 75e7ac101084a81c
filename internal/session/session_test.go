package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/net"
)

func TestMovesBeforeFirstSnapshot(t *testing.T) {
	h := newHarness(t, "alice")
	ctx := context.Background()

	if err := h.s.Attack(ctx, cd("6h")); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
	if err := h.s.Pass(ctx); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
	if calls := h.tr.Calls(); len(calls) != 0 {
		t.Errorf("Expected nothing sent, got %v", calls)
	}
}

func TestAttackIsPlacedThenConfirmed(t *testing.T) {
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h", "Ks")

	if err := h.s.Attack(context.Background(), cd("6h")); err != nil {
		t.Fatalf("Expected the attack to be accepted, got %v", err)
	}
	if calls := h.tr.Calls(); len(calls) != 1 || calls[0] != "Attack Hearts-Six" {
		t.Errorf("Expected one Attack call, got %v", calls)
	}
	view := h.s.View()
	if view.Slots[0].Attack != "Hearts-Six" {
		t.Errorf("Expected 6♥ placed in slot 0, got %+v", view.Slots[0])
	}
	if view.Pending != 1 {
		t.Errorf("Expected 1 pending action, got %d", view.Pending)
	}
	if h.inHand("6h") {
		t.Error("Expected 6♥ to leave the hand")
	}
	if h.count(log.EventOptimisticPlace) != 1 {
		t.Errorf("Expected 1 OptimisticPlace event, got %d", h.count(log.EventOptimisticPlace))
	}

	h.deliver(net.GameState{Snapshot: snapshot(1, 24, 5, 6, tc(0, "6h", ""))})

	if n := h.s.View().Pending; n != 0 {
		t.Errorf("Expected no pending actions, got %d", n)
	}
	if h.count(log.EventConfirm) != 1 {
		t.Errorf("Expected 1 Confirm event, got %d", h.count(log.EventConfirm))
	}
	if !h.onTable("6h") || h.inHand("6h") {
		t.Error("Expected 6♥ on the table only")
	}
}

func TestRejectedAttackReturnsToHand(t *testing.T) {
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h", "Ks")
	if err := h.s.Attack(context.Background(), cd("6h")); err != nil {
		t.Fatal(err)
	}

	h.deliver(
		net.ActionResult{PlayerID: "alice", Action: "Attack", ErrorCode: "InvalidMove", ErrorMessage: "not your turn"},
		net.GameState{Snapshot: snapshot(1, 24, 6, 6)},
	)

	if !h.inHand("6h") || h.onTable("6h") {
		t.Error("Expected 6♥ back in hand")
	}
	if h.count(log.EventActionRejected) != 1 {
		t.Errorf("Expected 1 ActionRejected event, got %d", h.count(log.EventActionRejected))
	}
	if h.count(log.EventRollback) != 1 {
		t.Errorf("Expected 1 Rollback event, got %d", h.count(log.EventRollback))
	}
}

func TestSendFailureRollsBack(t *testing.T) {
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h")
	broken := errors.New("broken pipe")
	h.tr.setFail(broken)

	err := h.s.Attack(context.Background(), cd("6h"))
	if !errors.Is(err, broken) {
		t.Fatalf("Expected the send error, got %v", err)
	}
	if !h.inHand("6h") || h.onTable("6h") {
		t.Error("Expected 6♥ back in hand")
	}
	if n := h.s.View().Pending; n != 0 {
		t.Errorf("Expected no pending actions, got %d", n)
	}
	if h.count(log.EventSendFailed) != 1 {
		t.Errorf("Expected 1 SendFailed event, got %d", h.count(log.EventSendFailed))
	}
	if e := h.logger.LastEvent(); e.Type != log.EventRollback {
		t.Errorf("Expected a rollback last, got %s", e.Type)
	}
}

func TestIllegalMovesAreRefused(t *testing.T) {
	ctx := context.Background()

	t.Run("attacker", func(t *testing.T) {
		h := newHarness(t, "alice")
		h.start(snapshot(1, 24, 6, 5, tc(0, "9h", "")), "6h", "9s")
		if err := h.s.Attack(ctx, cd("Ad")); !errors.Is(err, ErrCardNotInHand) {
			t.Errorf("Expected ErrCardNotInHand, got %v", err)
		}
		if err := h.s.Attack(ctx, cd("6h")); !errors.Is(err, game.ErrRankNotOnTable) {
			t.Errorf("Expected ErrRankNotOnTable, got %v", err)
		}
		if err := h.s.Defend(ctx, cd("9s"), 0); !errors.Is(err, game.ErrNotDefender) {
			t.Errorf("Expected ErrNotDefender, got %v", err)
		}
		if calls := h.tr.Calls(); len(calls) != 0 {
			t.Errorf("Expected nothing sent, got %v", calls)
		}
		if !h.inHand("6h") || !h.inHand("9s") {
			t.Error("Expected the hand untouched")
		}
	})

	t.Run("defender", func(t *testing.T) {
		h := newHarness(t, "bob")
		h.start(snapshot(1, 24, 6, 5, tc(0, "9h", "")), "6s", "8h", "10h")
		if err := h.s.Attack(ctx, cd("10h")); !errors.Is(err, game.ErrIsDefender) {
			t.Errorf("Expected ErrIsDefender, got %v", err)
		}
		if err := h.s.Defend(ctx, cd("8h"), 0); !errors.Is(err, game.ErrTooWeak) {
			t.Errorf("Expected ErrTooWeak, got %v", err)
		}
		if err := h.s.Defend(ctx, cd("6s"), 0); !errors.Is(err, game.ErrNotTrump) {
			t.Errorf("Expected ErrNotTrump, got %v", err)
		}
		if err := h.s.Defend(ctx, cd("10h"), 1); !errors.Is(err, game.ErrBadSlot) {
			t.Errorf("Expected ErrBadSlot, got %v", err)
		}
		if calls := h.tr.Calls(); len(calls) != 0 {
			t.Errorf("Expected nothing sent, got %v", calls)
		}
	})
}

func TestDefendIsPlaced(t *testing.T) {
	h := newHarness(t, "bob")
	h.start(snapshot(1, 24, 5, 6, tc(0, "9h", "")), "10h", "6c")

	if err := h.s.Defend(context.Background(), cd("10h"), 0); err != nil {
		t.Fatalf("Expected the defense to be accepted, got %v", err)
	}
	if calls := h.tr.Calls(); len(calls) != 1 || calls[0] != "Defend Hearts-Ten 0" {
		t.Errorf("Expected one Defend call, got %v", calls)
	}
	if view := h.s.View(); view.Slots[0].Defense != "Hearts-Ten" {
		t.Errorf("Expected 10♥ covering slot 0, got %+v", view.Slots[0])
	}

	// The server accepts the defense.
	h.deliver(net.GameState{Snapshot: snapshot(1, 24, 5, 5, tc(0, "9h", "10h"))})
	if n := h.s.View().Pending; n != 0 {
		t.Errorf("Expected no pending actions, got %d", n)
	}
}

func TestPendingExpires(t *testing.T) {
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h")
	if err := h.s.Attack(context.Background(), cd("6h")); err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(5 * time.Second)
	h.s.ExpireNow()
	h.sync()
	if n := h.s.View().Pending; n != 1 {
		t.Fatalf("Expected the action to survive within its TTL, got %d pending", n)
	}

	h.clock.Advance(6 * time.Second)
	h.s.ExpireNow()
	h.sync()
	if n := h.s.View().Pending; n != 0 {
		t.Errorf("Expected the action to expire, got %d pending", n)
	}
	if !h.inHand("6h") || h.onTable("6h") {
		t.Error("Expected 6♥ back in hand")
	}
	if h.count(log.EventExpire) != 1 {
		t.Errorf("Expected 1 Expire event, got %d", h.count(log.EventExpire))
	}
}

func TestPersonalStateExcludesPending(t *testing.T) {
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h", "Ks")
	if err := h.s.Attack(context.Background(), cd("6h")); err != nil {
		t.Fatal(err)
	}

	// A hand sent before the server saw the attack still lists 6♥.
	h.deliver(net.PersonalState{PlayerID: "alice", Cards: []game.Card{cd("6h"), cd("Ks"), cd("Qd")}})
	hand := h.s.Store().Hand()
	if len(hand) != 2 || h.inHand("6h") {
		t.Errorf("Expected K♠ and Q♦ only, got %v", hand)
	}

	h.deliver(net.PersonalState{PlayerID: "bob", Cards: []game.Card{cd("Ah")}})
	if h.inHand("Ah") {
		t.Error("Expected another player's hand to be ignored")
	}
}

func TestPass(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h", "9s")

	if err := h.s.Pass(ctx); !errors.Is(err, ErrNothingToPass) {
		t.Errorf("Expected ErrNothingToPass on an empty table, got %v", err)
	}

	h.deliver(net.GameState{Snapshot: snapshot(1, 24, 5, 5, tc(0, "9h", "10h"))})
	if err := h.s.Pass(ctx); err != nil {
		t.Fatalf("Expected the pass to be sent, got %v", err)
	}
	if err := h.s.Pass(ctx); !errors.Is(err, game.ErrAlreadyPassed) {
		t.Errorf("Expected ErrAlreadyPassed while the pass is pending, got %v", err)
	}
	// 9s matches the table, but the unconfirmed pass already ends alice's turn.
	if err := h.s.Attack(ctx, cd("9s")); !errors.Is(err, game.ErrAlreadyPassed) {
		t.Errorf("Expected ErrAlreadyPassed while the pass is pending, got %v", err)
	}
	if !h.inHand("9s") || h.onTable("9s") {
		t.Error("Expected 9s to stay in hand")
	}
	if calls := h.tr.Calls(); len(calls) != 1 || calls[0] != "Pass" {
		t.Errorf("Expected one Pass call, got %v", calls)
	}

	h.deliver(net.PassedState{PlayerID: "alice", Passed: true})
	if !h.s.Passed()["alice"] {
		t.Error("Expected alice marked as passed")
	}
	if !h.s.View().Players[0].Passed {
		t.Error("Expected the view to show alice passed")
	}
	if err := h.s.Attack(ctx, cd("6h")); !errors.Is(err, game.ErrAlreadyPassed) {
		t.Errorf("Expected ErrAlreadyPassed when attacking after a pass, got %v", err)
	}

	// The round is beaten: passes reset.
	h.deliver(net.GameState{Snapshot: snapshot(2, 22, 6, 6)})
	if len(h.s.Passed()) != 0 {
		t.Errorf("Expected passes reset for the new round, got %v", h.s.Passed())
	}
	if h.count(log.EventRoundBeaten) != 1 {
		t.Errorf("Expected 1 RoundBeaten event, got %d", h.count(log.EventRoundBeaten))
	}
}

func TestReconnectResyncs(t *testing.T) {
	h := newHarness(t, "alice")
	h.s.Connected(false)
	h.start(snapshot(1, 24, 6, 6), "6h")
	if calls := h.tr.Calls(); len(calls) != 0 {
		t.Errorf("Expected no state request on the first connect, got %v", calls)
	}

	h.s.Disconnected(errors.New("connection reset"))
	h.s.Connected(true)
	h.sync()

	if calls := h.tr.Calls(); len(calls) != 1 || calls[0] != "RequestState" {
		t.Errorf("Expected a state request after reconnecting, got %v", calls)
	}
	if h.count(log.EventTransportDown) != 1 || h.count(log.EventTransportUp) != 2 {
		t.Errorf("Expected 1 down and 2 up events, got %d and %d",
			h.count(log.EventTransportDown), h.count(log.EventTransportUp))
	}

	// Moves made by others while offline arrive as a full snapshot.
	h.deliver(net.GameState{Snapshot: snapshot(1, 24, 5, 5, tc(0, "9h", "10h"))})
	if h.count(log.EventResync) != 2 {
		t.Errorf("Expected a resync after reconnecting, got %d resync events", h.count(log.EventResync))
	}
	if !h.onTable("9h") || !h.onTable("10h") {
		t.Error("Expected the server table after the resync")
	}
}

func TestReconnectAcrossRoundEnd(t *testing.T) {
	h := newHarness(t, "alice")
	h.s.Connected(false)
	h.start(snapshot(1, 24, 5, 5, tc(0, "9h", "10h")), "6h")

	h.s.Disconnected(errors.New("connection reset"))
	h.s.Connected(true)
	h.sync()

	// The round was beaten and a new one started while offline.
	h.deliver(net.GameState{Snapshot: snapshot(2, 22, 5, 6, tc(0, "Qd", ""))})
	if n := h.count(log.EventRoundBeaten); n != 0 {
		t.Errorf("Expected no sweep for a round that ended offline, got %d", n)
	}
	if n := h.count(log.EventResync); n != 2 {
		t.Errorf("Expected a resync, got %d resync events", n)
	}
	if !h.onTable("Qd") || h.onTable("9h") {
		t.Error("Expected only the new round's attack on the table")
	}
}

func TestInvalidSnapshotIsRejected(t *testing.T) {
	h := newHarness(t, "alice")
	bad := snapshot(1, 24, 6, 6, tc(0, "9h", ""), tc(0, "9s", ""))
	h.deliver(net.GameState{Snapshot: bad})

	if h.count(log.EventSnapshotRejected) != 1 {
		t.Errorf("Expected 1 SnapshotRejected event, got %d", h.count(log.EventSnapshotRejected))
	}
	if h.onTable("9h") {
		t.Error("Expected the store untouched")
	}
	if err := h.s.Attack(context.Background(), cd("6h")); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
}

func TestGameFinishedReturnsPendingCards(t *testing.T) {
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h", "Ks")
	if err := h.s.Attack(context.Background(), cd("6h")); err != nil {
		t.Fatal(err)
	}

	h.deliver(net.GameFinished{LoserID: "bob"})

	if n := h.s.View().Pending; n != 0 {
		t.Errorf("Expected no pending actions, got %d", n)
	}
	if !h.inHand("6h") {
		t.Error("Expected 6♥ back in hand")
	}
	if e := h.logger.EventsOfType(log.EventGameFinished); len(e) != 1 || e[0].Player != "bob" {
		t.Errorf("Expected bob recorded as the loser, got %+v", e)
	}
	if err := h.s.Attack(context.Background(), cd("Ks")); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished, got %v", err)
	}
}

func TestLeaveClearsGame(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "alice")
	h.start(snapshot(1, 24, 6, 6), "6h", "Ks")
	if err := h.s.Attack(ctx, cd("6h")); err != nil {
		t.Fatal(err)
	}

	if err := h.s.Leave(ctx); err != nil {
		t.Fatal(err)
	}
	v := h.s.View()
	if v.Pending != 0 || len(v.Hand) != 0 || len(v.Players) != 0 {
		t.Errorf("Expected an empty view after leaving, got %+v", v)
	}
	if h.onTable("6h") {
		t.Error("Expected the table cleared")
	}
	if _, ok := h.s.Store().Snapshot(); ok {
		t.Error("Expected no snapshot after leaving")
	}
	if err := h.s.Attack(ctx, cd("Ks")); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
}

func TestStoppedSession(t *testing.T) {
	h := newHarness(t, "alice")
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{UserID: "alice"}, h.s.Store(), nil, h.logger)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if err := s.Pass(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}
