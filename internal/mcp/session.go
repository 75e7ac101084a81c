package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/net"
)

// Player is the session surface the tools drive; *session.Session
// implements it.
type Player interface {
	Attack(ctx context.Context, card game.Card) error
	Defend(ctx context.Context, card game.Card, slot int) error
	Pass(ctx context.Context) error
	View() net.TableView
	Passed() map[string]bool
	UserID() string
	Sync(ctx context.Context) error
	Leave(ctx context.Context) error
}

// EventView is a client event as presented in tool responses.
type EventView struct {
	Round   int    `json:"round"`
	Player  string `json:"player,omitempty"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events   []EventView    `json:"events"`
	State    *net.TableView `json:"state,omitempty"`
	Moves    *Moves         `json:"moves,omitempty"`
	Error    string         `json:"error,omitempty"`
	GameOver bool           `json:"game_over"`
	Loser    string         `json:"loser,omitempty"`
}

// GameSession is the one game an MCP process plays.
type GameSession struct {
	player Player
	logger *log.MemoryLogger
	cancel context.CancelFunc

	mu      sync.Mutex
	lastSeq int
}

// NewGameSession wraps a running player. cancel stops it on leave.
func NewGameSession(p Player, logger *log.MemoryLogger, cancel context.CancelFunc) *GameSession {
	return &GameSession{player: p, logger: logger, cancel: cancel}
}

// drainEvents returns the events logged since the previous call.
func (s *GameSession) drainEvents() []EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := []EventView{}
	for _, e := range s.logger.Since(s.lastSeq) {
		events = append(events, EventView{
			Round:   e.Round,
			Player:  e.Player,
			Type:    e.Type.String(),
			Card:    e.Card,
			Details: e.Details,
		})
		s.lastSeq = e.Seq
	}
	return events
}

// respond waits for the session to settle and snapshots it for the agent.
func (s *GameSession) respond(ctx context.Context, actionErr error) *ToolResponse {
	_ = s.player.Sync(ctx)
	view := s.player.View()
	resp := &ToolResponse{
		Events: s.drainEvents(),
		State:  &view,
	}
	if actionErr != nil {
		resp.Error = actionErr.Error()
	}
	finished := s.logger.EventsOfType(log.EventGameFinished)
	if view.Status == string(game.StatusFinished) || len(finished) > 0 {
		resp.GameOver = true
		if len(finished) > 0 {
			resp.Loser = finished[len(finished)-1].Player
		}
		return resp
	}
	resp.Moves = LegalMoves(view, s.player.UserID(), s.player.Passed())
	return resp
}

// leave drops the game state before stopping the player.
func (s *GameSession) leave(ctx context.Context) error {
	err := s.player.Leave(ctx)
	s.close()
	return err
}

func (s *GameSession) close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
