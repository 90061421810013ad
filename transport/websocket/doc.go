// Package websocket pushes Scrap Train state updates to browsers.
//
// A central Hub tracks the connections watching each session. After every
// state-changing request the API calls BroadcastToSession, and each watcher
// receives one JSON Message holding the new GameState and the events the
// request produced:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...},"events":[...]}
//
// Clients subscribe with /ws?session=<id> and never send commands over the
// socket; moves go through the REST API. Session IDs are matched
// case-insensitively. A client whose send buffer fills up is dropped.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
