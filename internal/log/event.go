package log

// EventType enumerates everything the client core reports while it runs.
type EventType int

const (
	EventSnapshot EventType = iota
	EventSnapshotRejected
	EventHand
	EventOptimisticPlace
	EventConfirm
	EventRollback
	EventRelocate
	EventExpire
	EventPass
	EventSlotFill
	EventSlotClear
	EventRoundBeaten
	EventRoundTaken
	EventResync
	EventPlayerPassed
	EventActionRejected
	EventHint
	EventGameFinished
	EventTransportUp
	EventTransportDown
	EventSendFailed
)

func (e EventType) String() string {
	switch e {
	case EventSnapshot:
		return "Snapshot"
	case EventSnapshotRejected:
		return "SnapshotRejected"
	case EventHand:
		return "Hand"
	case EventOptimisticPlace:
		return "OptimisticPlace"
	case EventConfirm:
		return "Confirm"
	case EventRollback:
		return "Rollback"
	case EventRelocate:
		return "Relocate"
	case EventExpire:
		return "Expire"
	case EventPass:
		return "Pass"
	case EventSlotFill:
		return "SlotFill"
	case EventSlotClear:
		return "SlotClear"
	case EventRoundBeaten:
		return "RoundBeaten"
	case EventRoundTaken:
		return "RoundTaken"
	case EventResync:
		return "Resync"
	case EventPlayerPassed:
		return "PlayerPassed"
	case EventActionRejected:
		return "ActionRejected"
	case EventHint:
		return "Hint"
	case EventGameFinished:
		return "GameFinished"
	case EventTransportUp:
		return "TransportUp"
	case EventTransportDown:
		return "TransportDown"
	case EventSendFailed:
		return "SendFailed"
	default:
		return "Unknown"
	}
}

// ClientEvent is a single observable step of the client core.
type ClientEvent struct {
	Seq     int       // monotonic sequence number
	Round   int       // server round counter at the time of the event
	Player  string    // acting player id, if any
	Type    EventType // event type
	Card    string    // card identity (if applicable)
	Details string    // human-readable detail string
}
