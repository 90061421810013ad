// Package service is the business layer of Scrap Train.
//
// GameService sits between the transports (REST, WebSocket, MCP) and the
// engine. Every session owns its own engine; the service serialises calls
// into it, drains the engine's event log once per request and packages
// results the transports can render directly.
//
// SessionManager and ConfigManager are the storage seams; game/session and
// game/config implement them.
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := service.NewGameService(sessions, configs)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	result, err := svc.BulkMove(ctx, info.ID, []string{"right", "right"}, false)
//	if result.StopReasonCode == "battle" {
//		svc.ResolveBattle(ctx, info.ID, true, 70)
//	}
//
// Errors wrap ErrSessionNotFound, ErrConfigNotFound, ErrInvalidConfig and
// ErrInvalidMoves, plus the engine's sentinel errors, so callers can branch
// with errors.Is.
package service
