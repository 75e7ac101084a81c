package mcp

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/durak/internal/config"
	"github.com/peterkuimelis/durak/internal/game"
	duraklog "github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/session"
)

// activeSession is the singleton game session (one per stdio process).
var activeSession *GameSession

// baseConfig holds the settings join_game starts from, set by main.
var baseConfig = config.Default()

// connect starts a player for cfg. Replaced in tests.
var connect = func(ctx context.Context, cfg config.Client, logger duraklog.EventLogger) (Player, error) {
	s, errc, err := session.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := <-errc; err != nil && ctx.Err() == nil {
			log.Printf("[MCP] Session stopped: %v", err)
		}
	}()
	return s, nil
}

// SetConfig sets the configuration join_game starts from.
func SetConfig(cfg config.Client) {
	baseConfig = cfg
}

// RegisterTools adds all game tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(joinGameTool(), handleJoinGame)
	s.AddTool(getTableStateTool(), handleGetTableState)
	s.AddTool(attackTool(), handleAttack)
	s.AddTool(defendTool(), handleDefend)
	s.AddTool(passTool(), handlePass)
	s.AddTool(leaveGameTool(), handleLeaveGame)
}

// --- Tool definitions ---

func joinGameTool() mcp.Tool {
	return mcp.NewTool("join_game",
		mcp.WithDescription("Join a Durak game on the game hub and start playing as the given user. "+
			"Returns the table state and the moves currently available. Moves are applied optimistically "+
			"and confirmed or rolled back by the server; check the events of later responses."),
		mcp.WithString("game_id", mcp.Description("Game to join; defaults to the configured game")),
		mcp.WithString("user_id", mcp.Description("Player id to play as; defaults to the configured user")),
		mcp.WithString("hub_url", mcp.Description("Hub websocket URL; defaults to the configured hub")),
	)
}

func getTableStateTool() mcp.Tool {
	return mcp.NewTool("get_table_state",
		mcp.WithDescription("Get the current table, hand, players, events since the last call and available moves. Read-only."),
	)
}

func attackTool() mcp.Tool {
	return mcp.NewTool("attack",
		mcp.WithDescription("Lead an attack or throw in a card. The card goes to the first free slot."),
		mcp.WithString("card", mcp.Required(), mcp.Description("Card id like 'Hearts-Ace' or short name like 'Ah'")),
	)
}

func defendTool() mcp.Tool {
	return mcp.NewTool("defend",
		mcp.WithDescription("Cover the attacking card in a slot. Only the defender may defend."),
		mcp.WithString("card", mcp.Required(), mcp.Description("Card id like 'Spades-Ten' or short name like '10s'")),
		mcp.WithNumber("slot", mcp.Required(), mcp.Description("0-based slot index of the attack to cover")),
	)
}

func passTool() mcp.Tool {
	return mcp.NewTool("pass",
		mcp.WithDescription("As an attacker, stop throwing in. As the defender, take all cards on the table."),
	)
}

func leaveGameTool() mcp.Tool {
	return mcp.NewTool("leave_game",
		mcp.WithDescription("Disconnect from the hub and end the local session."),
	)
}

// --- Tool handlers ---

func handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if activeSession != nil {
		return mcp.NewToolResultError("Already in a game. Use leave_game first."), nil
	}

	cfg := baseConfig
	if v := request.GetString("game_id", ""); v != "" {
		cfg.GameID = v
	}
	if v := request.GetString("user_id", ""); v != "" {
		cfg.UserID = v
	}
	if v := request.GetString("hub_url", ""); v != "" {
		cfg.HubURL = v
	}

	logger := duraklog.NewMemoryLogger()
	runCtx, cancel := context.WithCancel(context.Background())
	p, err := connect(runCtx, cfg, logger)
	if err != nil {
		cancel()
		return mcp.NewToolResultErrorf("Failed to join game: %v", err), nil
	}

	activeSession = NewGameSession(p, logger, cancel)
	return mcp.NewToolResultText(respondJSON(activeSession.respond(ctx, nil))), nil
}

func handleGetTableState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running. Use join_game first."), nil
	}
	return mcp.NewToolResultText(respondJSON(activeSession.respond(ctx, nil))), nil
}

func handleAttack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running. Use join_game first."), nil
	}
	card, err := game.ParseAny(request.GetString("card", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid card: %v", err), nil
	}
	err = activeSession.player.Attack(ctx, card)
	return finish(ctx, err)
}

func handleDefend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running. Use join_game first."), nil
	}
	card, err := game.ParseAny(request.GetString("card", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid card: %v", err), nil
	}
	slot := request.GetInt("slot", -1)
	if slot < 0 || slot >= game.MaxSlots {
		return mcp.NewToolResultErrorf("Invalid slot %d. Must be 0-%d.", slot, game.MaxSlots-1), nil
	}
	err = activeSession.player.Defend(ctx, card, slot)
	return finish(ctx, err)
}

func handlePass(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running. Use join_game first."), nil
	}
	err := activeSession.player.Pass(ctx)
	return finish(ctx, err)
}

func handleLeaveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running."), nil
	}
	err := activeSession.leave(ctx)
	activeSession = nil
	if err != nil {
		return mcp.NewToolResultErrorf("Left the game uncleanly: %v", err), nil
	}
	return mcp.NewToolResultText(`{"left": true}`), nil
}

// finish reports a refused move as a tool error that still carries the state.
func finish(ctx context.Context, actionErr error) (*mcp.CallToolResult, error) {
	resp := activeSession.respond(ctx, actionErr)
	if actionErr != nil {
		return mcp.NewToolResultError(respondJSON(resp)), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}
