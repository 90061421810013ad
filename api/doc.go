// Package api provides the HTTP REST API for Scrap Train.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create ({"config_id": "classic"}, optional)
//   - GET    /api/sessions                 list (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified         several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET    /api/sessions/{id}            session info with state and config
//   - DELETE /api/sessions/{id}            delete
//
// Game:
//   - GET  /api/sessions/{id}/state        current GameState
//   - POST /api/sessions/{id}/move         {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move    {"moves": ["up", "right"], "reset": false}
//   - POST /api/sessions/{id}/reset        restart the run, history is kept
//   - GET  /api/sessions/{id}/history      ?page=1&limit=20&order=desc
//
// Encounters:
//   - POST /api/sessions/{id}/battle       {"player_won": true, "remaining_health": 70}
//   - POST /api/sessions/{id}/reward       {"kind": "field_medic"}
//   - POST /api/sessions/{id}/reward/close
//   - POST /api/sessions/{id}/equip        {"kind": "scrap_plating"}, costs effect_cost scraps
//   - GET  /api/effects                    catalog of effect kinds at level 1
//
// Configuration:
//   - GET  /api/configs                    list with size and shortest path
//   - GET  /api/configs/{name}             full GameConfig
//   - POST /api/configs                    validate and save a GameConfig
//
// Every state-changing endpoint broadcasts the new state and its events to
// the session's websocket watchers (GET /ws?session={id}).
//
// Bulk moves stop early on a blocked or unknown move, and after a move that
// starts a battle or opens a reward, since both need a decision before the
// train can continue. stop_reason_code tells which.
//
// Errors are JSON with a matching status code:
//
//	{"error": "session \"ab12\": session not found", "code": 404}
//
// 404 for unknown sessions and configs, 400 for malformed input, 409 when
// the request does not fit the run (game over, no battle, no open reward,
// not enough scraps).
package api
