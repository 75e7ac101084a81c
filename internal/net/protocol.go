package net

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peterkuimelis/durak/internal/game"
)

// Updates pushed by the game hub. Every update carries an "updateType"
// discriminator; the set of kinds is closed and handled through Handler.

// UpdateType is the wire discriminator of an update.
type UpdateType string

const (
	TypeGameState     UpdateType = "GameState"
	TypePersonalState UpdateType = "PersonalState"
	TypePassedState   UpdateType = "PassedState"
	TypeCardsMoved    UpdateType = "CardsMoved"
	TypeCardsDealt    UpdateType = "CardsDealt"
	TypePlayerAction  UpdateType = "PlayerAction"
	TypeActionResult  UpdateType = "ActionResult"
	TypeRoundEnded    UpdateType = "RoundEnded"
	TypeGameFinished  UpdateType = "GameFinished"
)

// Update is one server event. Only the types in this file implement it.
type Update interface {
	Type() UpdateType
	dispatch(h Handler)
}

// Handler receives every kind of update. Adding a kind adds a method here,
// so every implementation has to handle it before the module compiles again.
type Handler interface {
	HandleGameState(GameState)
	HandlePersonalState(PersonalState)
	HandlePassedState(PassedState)
	HandleCardsMoved(CardsMoved)
	HandleCardsDealt(CardsDealt)
	HandlePlayerAction(PlayerAction)
	HandleActionResult(ActionResult)
	HandleRoundEnded(RoundEnded)
	HandleGameFinished(GameFinished)
}

// Dispatch calls the Handler method matching u's kind.
func Dispatch(u Update, h Handler) {
	u.dispatch(h)
}

// GameState is a full authoritative snapshot.
type GameState struct {
	game.Snapshot
}

// PersonalState carries the local player's hand.
type PersonalState struct {
	PlayerID string      `json:"playerId"`
	Cards    []game.Card `json:"cards"`
}

// PassedState reports that a player passed, or as defender, took.
type PassedState struct {
	PlayerID string `json:"playerId"`
	Passed   bool   `json:"passed"`
	Took     bool   `json:"took,omitempty"`
}

// CardsMoved reports cards placed on the table by a player.
type CardsMoved struct {
	PlayerID  string      `json:"playerId"`
	Cards     []game.Card `json:"cards"`
	SlotIndex int         `json:"slotIndex"`
	AsDefense bool        `json:"asDefense,omitempty"`
}

// CardsDealt reports how many cards each player drew from the deck.
type CardsDealt struct {
	Counts map[string]int `json:"counts"`
}

// PlayerAction echoes an action taken by any player.
type PlayerAction struct {
	PlayerID  string     `json:"playerId"`
	Action    string     `json:"action"`
	Card      *game.Card `json:"card,omitempty"`
	SlotIndex *int       `json:"slotIndex,omitempty"`
}

// ActionResult is the server's verdict on one of the local player's actions.
type ActionResult struct {
	PlayerID     string `json:"playerId"`
	Action       string `json:"action"`
	Success      bool   `json:"success"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// RoundEnded is the secondary round-end signal. The core does not rely on it.
type RoundEnded struct {
	Reason     string      `json:"reason"` // "Beaten" or "Taken"
	DefenderID string      `json:"defenderId"`
	Cards      []game.Card `json:"cards,omitempty"`
}

// GameFinished ends the match. LoserID is empty on a draw.
type GameFinished struct {
	LoserID string   `json:"loserId,omitempty"`
	Winners []string `json:"winners,omitempty"`
}

func (GameState) Type() UpdateType     { return TypeGameState }
func (PersonalState) Type() UpdateType { return TypePersonalState }
func (PassedState) Type() UpdateType   { return TypePassedState }
func (CardsMoved) Type() UpdateType    { return TypeCardsMoved }
func (CardsDealt) Type() UpdateType    { return TypeCardsDealt }
func (PlayerAction) Type() UpdateType  { return TypePlayerAction }
func (ActionResult) Type() UpdateType  { return TypeActionResult }
func (RoundEnded) Type() UpdateType    { return TypeRoundEnded }
func (GameFinished) Type() UpdateType  { return TypeGameFinished }

func (u GameState) dispatch(h Handler)     { h.HandleGameState(u) }
func (u PersonalState) dispatch(h Handler) { h.HandlePersonalState(u) }
func (u PassedState) dispatch(h Handler)   { h.HandlePassedState(u) }
func (u CardsMoved) dispatch(h Handler)    { h.HandleCardsMoved(u) }
func (u CardsDealt) dispatch(h Handler)    { h.HandleCardsDealt(u) }
func (u PlayerAction) dispatch(h Handler)  { h.HandlePlayerAction(u) }
func (u ActionResult) dispatch(h Handler)  { h.HandleActionResult(u) }
func (u RoundEnded) dispatch(h Handler)    { h.HandleRoundEnded(u) }
func (u GameFinished) dispatch(h Handler)  { h.HandleGameFinished(u) }

var ErrUnknownUpdate = errors.New("unknown update type")

// DecodeUpdate parses one update object using its updateType discriminator.
func DecodeUpdate(data []byte) (Update, error) {
	var head struct {
		UpdateType UpdateType `json:"updateType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}

	var (
		u   Update
		err error
	)
	switch head.UpdateType {
	case TypeGameState:
		u, err = decodeAs[GameState](data)
	case TypePersonalState:
		u, err = decodeAs[PersonalState](data)
	case TypePassedState:
		u, err = decodeAs[PassedState](data)
	case TypeCardsMoved:
		u, err = decodeAs[CardsMoved](data)
	case TypeCardsDealt:
		u, err = decodeAs[CardsDealt](data)
	case TypePlayerAction:
		u, err = decodeAs[PlayerAction](data)
	case TypeActionResult:
		u, err = decodeAs[ActionResult](data)
	case TypeRoundEnded:
		u, err = decodeAs[RoundEnded](data)
	case TypeGameFinished:
		u, err = decodeAs[GameFinished](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUpdate, head.UpdateType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.UpdateType, err)
	}
	return u, nil
}

func decodeAs[T Update](data []byte) (Update, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeUpdate marshals u with its updateType discriminator.
func EncodeUpdate(u Update) ([]byte, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", u.Type(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", u.Type(), err)
	}
	tag, _ := json.Marshal(u.Type())
	fields["updateType"] = tag
	return json.Marshal(fields)
}
