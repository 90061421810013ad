// Package mcp exposes Scrap Train to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request against the REST
// API (see package api), and the JSON answer is rendered as plain text an
// agent can read. The grid is drawn with the train as '@'.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state, move, bulk_move, reset_game, move_history
//   - resolve_battle, claim_reward, close_reward, equip_effect
//   - list_configs, list_effects, describe_cell, game_instructions
//
// API failures are returned as tool errors (IsError set), never as Go
// errors, so the agent sees the server's message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
