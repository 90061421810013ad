package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/scrap-train/game/engine"
	"github.com/wricardo/scrap-train/game/service"
)

// trainMarker is drawn over the train's cell in rendered grids
const trainMarker = '@'

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Scrap Train",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Scrap Train - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drive the train (@) from the start (S) to the terminus (T) without running out of health.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage game sessions
- game_state: current grid, health, scraps, loadout and any open encounter
- move / bulk_move: drive the train (requires intent explanation)
- resolve_battle: report the outcome of a raider battle
- claim_reward / close_reward: take or skip a salvage offer
- equip_effect: buy an effect upgrade with scraps
- reset_game, move_history, list_configs, list_effects, describe_cell
- game_instructions: full rules

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

func effectKindSchema(description string) map[string]interface{} {
	kinds := engine.EffectKinds()
	enum := make([]string, len(kinds))
	for i, k := range kinds {
		enum[i] = string(k)
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        enum,
		"description": description,
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: sessionSchema(nil),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the train one cell in a direction",
		InputSchema: sessionSchema(map[string]interface{}{
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"up", "down", "left", "right"},
				"description": "Direction to move",
			},
			"intent": map[string]interface{}{
				"type":        "string",
				"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
			},
			"reset": map[string]interface{}{
				"type":        "boolean",
				"description": "Reset before moving",
			},
		}, "direction"),
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence. Stops early when blocked, when a battle starts or when salvage is offered.", engine.MaxBulkMoves),
		InputSchema: sessionSchema(map[string]interface{}{
			"moves": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "string",
					"enum": []string{"up", "down", "left", "right"},
				},
				"description": "Array of moves",
			},
			"intent": map[string]interface{}{
				"type":        "string",
				"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
			},
			"reset": map[string]interface{}{
				"type":        "boolean",
				"description": "Reset before moving",
			},
		}, "moves"),
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to initial state",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: sessionSchema(map[string]interface{}{
			"page": map[string]interface{}{
				"type":        "integer",
				"description": "Page number",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Items per page",
			},
		}),
	}, c.handleMoveHistory)

	// Encounters
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resolve_battle",
		Description: "Report the outcome of the active battle. Winning pays the battle bounty; losing ends the run.",
		InputSchema: sessionSchema(map[string]interface{}{
			"player_won": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the train won the fight",
			},
			"remaining_health": map[string]interface{}{
				"type":        "integer",
				"description": "Train health after the fight",
			},
		}, "player_won", "remaining_health"),
	}, c.handleResolveBattle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "claim_reward",
		Description: "Take one effect from the open salvage offer",
		InputSchema: sessionSchema(map[string]interface{}{
			"kind": effectKindSchema("Effect to claim; must be in the current offer"),
		}, "kind"),
	}, c.handleClaimReward)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "close_reward",
		Description: "Skip the open salvage offer",
		InputSchema: sessionSchema(nil),
	}, c.handleCloseReward)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "equip_effect",
		Description: "Spend scraps to equip an effect or raise its level",
		InputSchema: sessionSchema(map[string]interface{}{
			"kind": effectKindSchema("Effect to equip"),
		}, "kind"),
	}, c.handleEquip)

	// Reference
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_effects",
		Description: "List every effect kind with its level-1 magnitude and max level",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListEffects)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one grid cell: its tile character, type and whether the train can enter it.",
		InputSchema: sessionSchema(map[string]interface{}{
			"row": map[string]interface{}{
				"type":        "integer",
				"description": "Row of the cell (0-based)",
			},
			"col": map[string]interface{}{
				"type":        "integer",
				"description": "Column of the cell (0-based)",
			},
		}, "row", "col"),
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Config: %s, Created: %s)\n", s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)
	// "intent" is accepted but only serves the caller's reasoning

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := args["page"].(float64); ok {
		query.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleResolveBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	playerWon, _ := args["player_won"].(bool)
	health, ok := args["remaining_health"].(float64)
	if !ok {
		return mcp.NewToolResultError("remaining_health is required"), nil
	}

	body := map[string]interface{}{
		"player_won":       playerWon,
		"remaining_health": int(health),
	}
	return c.action(ctx, sessionPath(sessionID, "/battle"), body)
}

func (c *Client) handleClaimReward(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	kind, _ := args["kind"].(string)
	return c.action(ctx, sessionPath(sessionID, "/reward"), map[string]string{"kind": kind})
}

func (c *Client) handleCloseReward(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	return c.action(ctx, sessionPath(sessionID, "/reward/close"), nil)
}

func (c *Client) handleEquip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	kind, _ := args["kind"].(string)
	return c.action(ctx, sessionPath(sessionID, "/equip"), map[string]string{"kind": kind})
}

// action posts an encounter request and renders the ActionResult
func (c *Client) action(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Max health: %d, Shortest path: %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Rows, cfg.Cols, cfg.MaxHealth, cfg.ShortestPath)
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleListEffects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var effects []engine.EffectView
	if err := c.apiCall(ctx, "GET", "/api/effects", nil, &effects); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Effects:\n")
	for _, e := range effects {
		fmt.Fprintf(&result, "- %s: magnitude %g per level, max level %d\n", e.Kind, e.Magnitude, e.MaxLevel)
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	rowF, rowOK := args["row"].(float64)
	colF, colOK := args["col"].(float64)
	if !rowOK || !colOK {
		return mcp.NewToolResultError("row and col are required"), nil
	}
	row, col := int(rowF), int(colF)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= len(state.Grid) || col < 0 || col >= len(state.Grid[row]) {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d,%d) is out of bounds. Grid is %d rows", row, col, len(state.Grid))), nil
	}

	char := string(state.Grid[row][col])
	var out strings.Builder
	fmt.Fprintf(&out, "Cell (%d,%d)\nTile: %s (%s)\n", row, col, char, engine.RequiredLegend[char])
	if char == string(engine.TileImpassable) {
		out.WriteString("Passable: no\n")
	} else {
		out.WriteString("Passable: yes\n")
	}
	fmt.Fprintf(&out, "Effect: %s\n", tileDescription(char))
	if state.TrainCell.Row == row && state.TrainCell.Col == col {
		out.WriteString("The train is here.\n")
	}
	return mcp.NewToolResultText(out.String()), nil
}

func tileDescription(char string) string {
	switch char {
	case ".":
		return "plain track, nothing happens"
	case "S":
		return "start of the line"
	case "T":
		return "terminus, reaching it wins the run"
	case "C":
		return "raiders, starts a battle on entry; leaving mid-battle flees"
	case "R":
		return "salvage, offers effects on entry; the cell clears after the offer closes"
	case "H":
		return "repair yard, heals on entry"
	case "D":
		return "rough track, damages on entry"
	case "X":
		return "blocked, the train cannot enter"
	}
	return "unknown tile"
}

const instructions = `Scrap Train - Complete Instructions

GAME OBJECTIVE:
Drive your train from the start (S) to the terminus (T). Arriving at the terminus
with no battle in progress wins. Health dropping to 0, or losing a battle, ends the run.

GRID LEGEND:
• @ - Your train (drawn over the tile it stands on)
• . - Track (passable)
• S - Start (passable)
• T - Terminus (passable, goal)
• C - Raiders (passable, starts a battle)
• R - Salvage (passable, offers effects, one-shot)
• H - Repair yard (passable, heals)
• D - Rough track (passable, damages)
• X - Blocked (impassable)

CELL RULES:
• Effects trigger when the train ENTERS a cell. Standing still triggers nothing.
• Leaving a cell fires its exit effect before the next cell's enter effect.
• Heal and damage are clamped between 0 and max health.

BATTLES:
• Entering C starts a battle. Your equipped effects fire at battle start when their
  conditions hold (e.g. field_medic only when health is low).
• Report the outcome with resolve_battle. Winning pays the battle bounty in scraps.
• Moving off the C cell while the battle is active flees: no bounty, no defeat.

SALVAGE:
• Entering R opens an offer. Take one effect with claim_reward, or skip with close_reward.
• The salvage cell turns into plain track on the next tick after the offer closes.

EFFECTS:
• equip_effect spends scraps to add an effect or raise its level.
• Equipping a kind you already carry merges into it, up to its max level.
• A merge at max level is rejected and costs nothing.

MOVEMENT COMMANDS:
- up, down, left, right - Single moves in cardinal directions
- bulk_move - Several moves at once; it stops at blocks, battles and salvage offers
- reset - Restart the run; move history is kept

STRATEGY:
- Read the grid row by row; X is the only impassable tile
- Use list_configs to see each map's shortest path
- Repair before crossing rough track or raiders when health is low
- Equip shields (scrap_plating) before a battle you expect to be hard

SESSION MANAGEMENT:
- Multiple game sessions can run simultaneously
- Each session has a unique 4-character ID
- Sessions keep independent state and configuration

Good luck on the line!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Train: (%d,%d) | Health: %d/%d | Scraps: %d | Moves: %d\n",
		state.TrainCell.Row, state.TrainCell.Col,
		state.Health, state.MaxHealth, state.Scraps, state.TotalMoves)

	if len(state.Loadout) > 0 {
		parts := make([]string, len(state.Loadout))
		for i, e := range state.Loadout {
			parts[i] = fmt.Sprintf("%s L%d/%d", e.Kind, e.Level, e.MaxLevel)
		}
		fmt.Fprintf(&result, "Loadout: %s\n", strings.Join(parts, ", "))
	}
	if b := state.Battle; b != nil {
		fmt.Fprintf(&result, "⚔ Battle at (%d,%d): shield %g, bonus damage %g\n", b.Cell.Row, b.Cell.Col, b.Shield, b.BonusDamage)
	}
	if len(state.RewardOffer) > 0 {
		fmt.Fprintf(&result, "Salvage offer: %v\n", state.RewardOffer)
	}
	if len(state.PossibleMoves) > 0 {
		fmt.Fprintf(&result, "Possible moves: %s\n", strings.Join(state.PossibleMoves, ", "))
	}
	result.WriteString("\n")

	for r, line := range state.Grid {
		if r == state.TrainCell.Row && state.TrainCell.Col >= 0 && state.TrainCell.Col < len(line) {
			b := []byte(line)
			b[state.TrainCell.Col] = trainMarker
			line = string(b)
		}
		result.WriteString(line)
		result.WriteString("\n")
	}

	if state.GameOver {
		if state.Victory {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			result.WriteString("\n💀 GAME OVER")
		}
	}
	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}
	return result.String()
}

func formatEvents(events []engine.GameEvent) string {
	if len(events) == 0 {
		return ""
	}
	var out strings.Builder
	out.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(&out, "- %s: %s\n", event.Type, event.Message)
	}
	return out.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var response strings.Builder
	if result.Success {
		response.WriteString("✓ Move successful\n")
	} else {
		response.WriteString("✗ Move failed\n")
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&response, "Step: %s (%d,%d)→(%d,%d) tile=%s health=%d→%d\n",
			s.Dir, s.From.Row, s.From.Col, s.To.Row, s.To.Col, s.TileChar, s.HealthBefore, s.HealthAfter)
	}
	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&response, "Blocked: attempted (%d,%d) tile=%s %s\n", a.Row, a.Col, a.TileChar, a.TileType)
	}

	response.WriteString(formatEvents(result.Events))
	response.WriteString("\n" + formatGameState(result.GameState))
	return response.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var out strings.Builder
	fmt.Fprintf(&out, "Session %s: executed %d/%d moves", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&out, " (truncated to %d)", result.Limit)
	}
	out.WriteString("\n")

	if result.StopReasonCode != "" {
		fmt.Fprintf(&out, "Stopped: %s", result.StopReasonCode)
		if result.StoppedOnMove > 0 {
			fmt.Fprintf(&out, " on move %d", result.StoppedOnMove)
		}
		if result.StoppedReason != "" {
			fmt.Fprintf(&out, " (%s)", result.StoppedReason)
		}
		out.WriteString("\n")
	}

	fmt.Fprintf(&out, "Route: (%d,%d)→(%d,%d) | Health: %d→%d | Scraps Δ: %+d\n",
		result.StartCell.Row, result.StartCell.Col, result.EndCell.Row, result.EndCell.Col,
		result.StartHealth, result.EndHealth, result.ScrapsDelta)

	for _, s := range result.Steps {
		fmt.Fprintf(&out, "  %d. %s → (%d,%d) %s health=%d\n", s.Idx, s.Dir, s.To.Row, s.To.Col, s.TileChar, s.HealthAfter)
	}
	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&out, "Blocked: attempted (%d,%d) tile=%s %s\n", a.Row, a.Col, a.TileChar, a.TileType)
	}

	out.WriteString(formatEvents(result.Events))
	out.WriteString("\n" + formatGameState(result.GameState))
	return out.String()
}

func formatActionResult(result *service.ActionResult) string {
	var out strings.Builder
	if result.Success {
		out.WriteString("✓ Done\n")
	} else {
		out.WriteString("✗ Rejected\n")
	}
	if m := result.Merge; m != nil {
		fmt.Fprintf(&out, "Merge: %s\n", m)
	}
	out.WriteString(formatEvents(result.Events))
	out.WriteString("\n" + formatGameState(result.GameState))
	return out.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var out strings.Builder
	fmt.Fprintf(&out, "Move History (page %d/%d, %d total moves):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		fmt.Fprintf(&out, "#%d %s %s (%d,%d)→(%d,%d) health=%d scraps=%d\n",
			m.MoveNumber, status, m.Action, m.From.Row, m.From.Col, m.To.Row, m.To.Col, m.Health, m.Scraps)
	}
	return out.String()
}
