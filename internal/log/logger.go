package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventLogger is the interface for logging client events.
type EventLogger interface {
	Log(event ClientEvent)
	Events() []ClientEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	mu     sync.Mutex
	events []ClientEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event ClientEvent) {
	l.record(event)
}

func (l *MemoryLogger) record(event ClientEvent) ClientEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	return event
}

func (l *MemoryLogger) Events() []ClientEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ClientEvent(nil), l.events...)
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []ClientEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []ClientEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() ClientEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return ClientEvent{}
	}
	return l.events[len(l.events)-1]
}

// Since returns the events with a sequence number greater than seq.
func (l *MemoryLogger) Since(seq int) []ClientEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []ClientEvent
	for _, e := range l.events {
		if e.Seq > seq {
			result = append(result, e)
		}
	}
	return result
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	wmu sync.Mutex
	w   io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event ClientEvent) {
	event = l.MemoryLogger.record(event)
	l.wmu.Lock()
	defer l.wmu.Unlock()
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e ClientEvent) string {
	player := e.Player
	if len(player) > 10 {
		player = player[:10]
	}
	return fmt.Sprintf("R%-2d %-10s| %s", e.Round, player, e.Details)
}

// --- Helper constructors for common events ---

func NewSnapshotEvent(round int, attacker, defender string, tableCards, deck int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Type:    EventSnapshot,
		Details: fmt.Sprintf("Snapshot: %s attacks %s, %d card(s) on table, %d in deck", attacker, defender, tableCards, deck),
	}
}

func NewSnapshotRejectedEvent(round int, err error) ClientEvent {
	return ClientEvent{
		Round:   round,
		Type:    EventSnapshotRejected,
		Details: fmt.Sprintf("Snapshot ignored: %v", err),
	}
}

func NewHandEvent(round int, player string, size int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventHand,
		Details: fmt.Sprintf("Hand replaced (%d cards)", size),
	}
}

func NewOptimisticPlaceEvent(round int, player, card, kind string, slot int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventOptimisticPlace,
		Card:    card,
		Details: fmt.Sprintf("%s %s placed in slot %d (pending)", kind, card, slot+1),
	}
}

func NewConfirmEvent(round int, player, card string, slot int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventConfirm,
		Card:    card,
		Details: fmt.Sprintf("%s confirmed in slot %d", card, slot+1),
	}
}

func NewRollbackEvent(round int, player, card, reason string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventRollback,
		Card:    card,
		Details: fmt.Sprintf("%s returned to hand (%s)", card, reason),
	}
}

func NewRelocateEvent(round int, player, card string, from, to int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventRelocate,
		Card:    card,
		Details: fmt.Sprintf("%s moved from slot %d to slot %d", card, from+1, to+1),
	}
}

func NewExpireEvent(round int, player, card, kind string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventExpire,
		Card:    card,
		Details: fmt.Sprintf("Pending %s %s expired without confirmation", kind, card),
	}
}

func NewPassEvent(round int, player string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventPass,
		Details: "Pass sent (pending)",
	}
}

func NewSlotFillEvent(round int, card string, slot int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Type:    EventSlotFill,
		Card:    card,
		Details: fmt.Sprintf("%s appears in slot %d", card, slot+1),
	}
}

func NewSlotClearEvent(round int, card string, slot int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Type:    EventSlotClear,
		Card:    card,
		Details: fmt.Sprintf("%s removed from slot %d", card, slot+1),
	}
}

func NewRoundBeatenEvent(round int, cards []string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Type:    EventRoundBeaten,
		Details: fmt.Sprintf("Round beaten, %d card(s) discarded: %s", len(cards), strings.Join(cards, ", ")),
	}
}

func NewRoundTakenEvent(round int, defender string, cards []string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  defender,
		Type:    EventRoundTaken,
		Details: fmt.Sprintf("%s takes %d card(s): %s", defender, len(cards), strings.Join(cards, ", ")),
	}
}

func NewResyncEvent(round int, tableCards int) ClientEvent {
	return ClientEvent{
		Round:   round,
		Type:    EventResync,
		Details: fmt.Sprintf("Table rebuilt from server state (%d card(s))", tableCards),
	}
}

func NewPlayerPassedEvent(round int, player string, took bool) ClientEvent {
	what := "passes"
	if took {
		what = "takes"
	}
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventPlayerPassed,
		Details: fmt.Sprintf("%s %s", player, what),
	}
}

func NewActionRejectedEvent(round int, player, code, message string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventActionRejected,
		Details: fmt.Sprintf("Server rejected action [%s]: %s", code, message),
	}
}

func NewHintEvent(round int, player, kind, details string) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventHint,
		Details: fmt.Sprintf("%s: %s", kind, details),
	}
}

func NewGameFinishedEvent(round int, loser string) ClientEvent {
	details := "Game finished in a draw"
	if loser != "" {
		details = fmt.Sprintf("Game finished, %s is the fool", loser)
	}
	return ClientEvent{
		Round:   round,
		Player:  loser,
		Type:    EventGameFinished,
		Details: details,
	}
}

func NewTransportUpEvent(reconnect bool) ClientEvent {
	details := "Connected to hub"
	if reconnect {
		details = "Reconnected to hub, resyncing"
	}
	return ClientEvent{
		Type:    EventTransportUp,
		Details: details,
	}
}

func NewTransportDownEvent(err error) ClientEvent {
	return ClientEvent{
		Type:    EventTransportDown,
		Details: fmt.Sprintf("Hub connection lost: %v", err),
	}
}

func NewSendFailedEvent(round int, player, action string, err error) ClientEvent {
	return ClientEvent{
		Round:   round,
		Player:  player,
		Type:    EventSendFailed,
		Details: fmt.Sprintf("Could not send %s: %v", action, err),
	}
}
