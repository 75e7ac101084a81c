package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/peterkuimelis/durak/internal/game"
)

// Kind is the type of a pending player action.
type Kind int

const (
	KindAttack Kind = iota
	KindDefend
	KindPass
)

func (k Kind) String() string {
	switch k {
	case KindAttack:
		return "attack"
	case KindDefend:
		return "defend"
	case KindPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Action is a player action placed optimistically and not yet confirmed by
// a server snapshot.
type Action struct {
	ID        string
	Kind      Kind
	Card      game.Card
	HasCard   bool // false for pass
	Slot      int  // slot the card was placed in locally; -1 for pass
	CreatedAt time.Time
}

func (a Action) String() string {
	if !a.HasCard {
		return fmt.Sprintf("%s[%s]", a.Kind, shortID(a.ID))
	}
	return fmt.Sprintf("%s %s@%d[%s]", a.Kind, a.Card.ID(), a.Slot, shortID(a.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewID returns a fresh action identity.
func NewID() string {
	return uuid.NewString()
}

var (
	ErrDuplicateID = errors.New("action id already pending")
	ErrEmptyID     = errors.New("action id is empty")
)

// Ledger tracks in-flight actions by id, preserving insertion order.
// Actions stay pending until explicitly removed; Expired reports the ones
// that have waited longer than a ttl.
type Ledger struct {
	mu      sync.Mutex
	actions *orderedmap.OrderedMap[string, Action]
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{actions: orderedmap.New[string, Action]()}
}

// Add records a pending action.
func (l *Ledger) Add(a Action) error {
	if a.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.actions.Get(a.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	l.actions.Set(a.ID, a)
	return nil
}

// Remove drops the action with the given id and returns it.
func (l *Ledger) Remove(id string) (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.actions.Delete(id)
}

// FindByID returns the pending action with the given id.
func (l *Ledger) FindByID(id string) (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.actions.Get(id)
}

// HasKind reports whether an action of kind k is pending.
func (l *Ledger) HasKind(k Kind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for p := l.actions.Oldest(); p != nil; p = p.Next() {
		if p.Value.Kind == k {
			return true
		}
	}
	return false
}

// All returns the pending actions in insertion order without removing them.
func (l *Ledger) All() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list()
}

// DrainAll removes and returns every pending action in insertion order.
func (l *Ledger) DrainAll() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.list()
	l.actions = orderedmap.New[string, Action]()
	return out
}

func (l *Ledger) list() []Action {
	out := make([]Action, 0, l.actions.Len())
	for p := l.actions.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Len returns the number of pending actions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.actions.Len()
}

// Expired returns the actions created more than ttl before now. They remain
// in the ledger; the caller decides how to resolve them.
func (l *Ledger) Expired(now time.Time, ttl time.Duration) []Action {
	if ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Action
	for p := l.actions.Oldest(); p != nil; p = p.Next() {
		if now.Sub(p.Value.CreatedAt) > ttl {
			out = append(out, p.Value)
		}
	}
	return out
}
