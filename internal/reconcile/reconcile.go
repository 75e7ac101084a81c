package reconcile

import (
	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/ledger"
	"github.com/peterkuimelis/durak/internal/store"
)

// Outcome is how a pending action was settled by a snapshot.
type Outcome int

const (
	OutcomeConfirmed Outcome = iota
	OutcomeRolledBack
	OutcomeRelocated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeRelocated:
		return "relocated"
	default:
		return "unknown"
	}
}

// Resolution settles one pending action. From is the slot the card occupied
// locally, To the slot the server reports (-1 when absent).
type Resolution struct {
	Action  ledger.Action
	Outcome Outcome
	From    int
	To      int
}

type OpKind int

const (
	OpPlace OpKind = iota
	OpRemove
	OpMove
)

func (k OpKind) String() string {
	switch k {
	case OpPlace:
		return "place"
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	default:
		return "unknown"
	}
}

// Op is one corrective table mutation, in the order it should be animated.
type Op struct {
	Kind   OpKind
	Card   game.Card
	Slot   int
	To     int  // destination slot for OpMove
	ToHand bool // OpRemove of a rolled back card that returns to the local hand
}

// Input is everything reconciliation looks at.
type Input struct {
	Prev    *game.Snapshot // nil before the first snapshot
	Next    game.Snapshot
	Slots   game.Slots  // local table, including optimistic cards
	Hand    []game.Card // local hand
	Pending []ledger.Action
	// Resync forces a rebuild from Next, as after a reconnect.
	Resync bool
}

// Result describes how to bring local state in line with Next.
type Result struct {
	Boundary    Boundary
	Resynced    bool
	Slots       game.Slots // always equal to Next's table
	HandAdd     []game.Card
	Resolutions []Resolution
	Ops         []Op
	Intent      store.Intent
}

// Reconcile diffs an authoritative snapshot against local optimistic state.
// It never fails: the snapshot always wins.
func Reconcile(in Input) Result {
	res := Result{Slots: in.Next.Slots()}
	// After a reconnect prev is stale, so a count change says nothing about
	// how the round ended.
	if !in.Resync {
		res.Boundary = ClassifyBoundary(in.Prev, in.Next)
	}

	switch res.Boundary {
	case BoundaryBeaten, BoundaryTaken:
		reconcileBoundary(in, &res)
		return res
	}

	if (in.Prev == nil || in.Resync) && len(in.Pending) == 0 {
		res.Resynced = true
		res.Intent = store.Intent{Kind: store.IntentResync, Cards: res.Slots.Cards()}
		return res
	}

	working := in.Slots.Clone()
	for _, a := range in.Pending {
		res.Resolutions = append(res.Resolutions, resolveAction(a, in, &working, &res))
	}
	res.Ops = append(res.Ops, diffSlots(working, res.Slots)...)
	return res
}

func reconcileBoundary(in Input, res *Result) {
	// Pending cards go back to the hand, not with the rest of the table.
	var previous []game.Card
	for _, c := range in.Slots.Cards() {
		if !pendingCard(in.Pending, c) {
			previous = append(previous, c)
		}
	}
	switch res.Boundary {
	case BoundaryBeaten:
		res.Intent = store.Intent{Kind: store.IntentSweepTable, Cards: previous}
	case BoundaryTaken:
		res.Intent = store.Intent{Kind: store.IntentMoveToDefender, Cards: previous, Recipient: in.Prev.DefenderID}
	}

	// The table the pending cards were aimed at no longer exists.
	for _, a := range in.Pending {
		r := Resolution{Action: a, Outcome: OutcomeConfirmed, From: a.Slot, To: -1}
		if a.HasCard {
			if slot, _, ok := in.Slots.Find(a.Card); ok {
				r.From = slot
			}
			r.Outcome = OutcomeRolledBack
			res.returnToHand(a.Card, in)
		}
		res.Resolutions = append(res.Resolutions, r)
	}

	// A new attack may already be on the table in the same snapshot.
	res.Ops = diffSlots(game.Slots{}, res.Slots)
}

// resolveAction settles a single pending action against in.Next, updating
// working in place so the final diff only has to cover other players' moves.
func resolveAction(a ledger.Action, in Input, working *game.Slots, res *Result) Resolution {
	if !a.HasCard {
		return Resolution{Action: a, Outcome: OutcomeConfirmed, From: -1, To: -1}
	}

	from := a.Slot
	if slot, _, ok := working.Find(a.Card); ok {
		from = slot
	}

	to, asDefense, found := locate(in.Next.TableCards, a.Card)
	if !found || asDefense != (a.Kind == ledger.KindDefend) {
		removeCard(working, a.Card)
		res.Ops = append(res.Ops, Op{Kind: OpRemove, Card: a.Card, Slot: from, ToHand: true})
		res.returnToHand(a.Card, in)
		return Resolution{Action: a, Outcome: OutcomeRolledBack, From: from, To: -1}
	}

	if to != from {
		removeCard(working, a.Card)
		if placeCard(working, a.Card, to, asDefense) {
			res.Ops = append(res.Ops, Op{Kind: OpMove, Card: a.Card, Slot: from, To: to})
		} else {
			// The target slot is still taken locally; the final diff places
			// the card once the slot has been corrected.
			res.Ops = append(res.Ops, Op{Kind: OpRemove, Card: a.Card, Slot: from})
		}
		return Resolution{Action: a, Outcome: OutcomeRelocated, From: from, To: to}
	}
	return Resolution{Action: a, Outcome: OutcomeConfirmed, From: from, To: to}
}

func (res *Result) returnToHand(card game.Card, in Input) {
	if game.ContainsCard(in.Hand, card) || game.ContainsCard(res.HandAdd, card) {
		return
	}
	if _, _, onTable := res.Slots.Find(card); onTable {
		return
	}
	res.HandAdd = append(res.HandAdd, card)
}

// locate finds card among the server's table cards.
func locate(table []game.TableCard, card game.Card) (slot int, asDefense, found bool) {
	for _, tc := range table {
		if tc.Card == card {
			return tc.SlotIndex, false, true
		}
		if tc.DefendingCard != nil && *tc.DefendingCard == card {
			return tc.SlotIndex, true, true
		}
	}
	return -1, false, false
}

func removeCard(working *game.Slots, card game.Card) {
	for i := range working {
		for j, c := range working[i].Cards {
			if c != card {
				continue
			}
			if j == 0 {
				working[i] = game.Slot{}
			} else {
				working[i].Cards = working[i].Cards[:j:j]
			}
			return
		}
	}
}

func placeCard(working *game.Slots, card game.Card, slot int, asDefense bool) bool {
	if slot < 0 || slot >= len(working) {
		return false
	}
	cards := working[slot].Cards
	switch {
	case asDefense && len(cards) == 1:
		working[slot].Cards = append(cards[:1:1], card)
	case !asDefense && len(cards) == 0:
		working[slot].Cards = []game.Card{card}
	default:
		return false
	}
	return true
}

// diffSlots returns the ops that turn local into target. A local slot that
// is a prefix of its target only gains cards, attack before defense; any
// other mismatch removes the diverging local cards first.
func diffSlots(local, target game.Slots) []Op {
	var ops []Op
	for i := range target {
		have, want := local[i].Cards, target[i].Cards
		k := 0
		for k < len(have) && k < len(want) && have[k] == want[k] {
			k++
		}
		for j := len(have) - 1; j >= k; j-- {
			ops = append(ops, Op{Kind: OpRemove, Card: have[j], Slot: i})
		}
		for _, c := range want[k:] {
			ops = append(ops, Op{Kind: OpPlace, Card: c, Slot: i})
		}
	}
	return ops
}

// ReconcileHand returns the server's view of the local hand minus cards that
// are still pending on the table.
func ReconcileHand(server []game.Card, pending []ledger.Action) []game.Card {
	out := make([]game.Card, 0, len(server))
	for _, c := range server {
		if !pendingCard(pending, c) {
			out = append(out, c)
		}
	}
	return out
}

func pendingCard(pending []ledger.Action, card game.Card) bool {
	for _, a := range pending {
		if a.HasCard && a.Card == card {
			return true
		}
	}
	return false
}

// Apply performs res against the store and ledger: settled actions leave the
// ledger, the table is corrected op by op so subscribers see each step, then
// forced to the authoritative layout, and finally the hand and the
// animation intent are updated.
func Apply(st *store.Store, l *ledger.Ledger, res Result) {
	for _, r := range res.Resolutions {
		l.Remove(r.Action.ID)
	}

	switch {
	case res.Resynced:
		st.SetSlots(res.Slots)
	default:
		if res.Boundary != BoundaryNone {
			st.ClearTable()
		}
		// Relocated cards are announced once, just before they land.
		relocated := make(map[game.Card]Resolution)
		for _, r := range res.Resolutions {
			if r.Outcome == OutcomeRelocated {
				relocated[r.Action.Card] = r
			}
		}
		announce := func(card game.Card) {
			if r, ok := relocated[card]; ok {
				delete(relocated, card)
				st.Animate(store.Intent{Kind: store.IntentRelocate, Cards: []game.Card{card}, From: r.From, To: r.To})
			}
		}
		for _, op := range res.Ops {
			switch op.Kind {
			case OpPlace:
				announce(op.Card)
				st.AddCardToSlot(op.Card, op.Slot)
			case OpRemove:
				st.RemoveCardFromSlots(op.Card)
			case OpMove:
				announce(op.Card)
				st.RemoveCardFromSlots(op.Card)
				st.AddCardToSlot(op.Card, op.To)
			}
		}
		st.SetSlots(res.Slots)
	}

	// A card on the table cannot also be in hand.
	for _, c := range res.Slots.Cards() {
		st.RemoveCardFromHand(c)
	}
	st.AddCardToHand(res.HandAdd...)
	st.Animate(res.Intent)
}
