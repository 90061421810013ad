// Package session keeps Scrap Train game sessions in memory.
//
// Each Session owns its own engine, so moves in one session never affect
// another. IDs are case-insensitive; an empty ID passed to Create gets a
// random 4-character hex ID.
//
// Sessions live for the lifetime of the process. CleanupExpiredSessions drops
// the ones that have not been touched for a given duration.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
package session
