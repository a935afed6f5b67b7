// Package database provides SQLite connection management and schema
// migrations for Atrium Core.
//
// The database holds the identity directory, room directory, ACL grants, and
// the append-only audit log. SQLite suits a single-instance deployment: one
// file, one writer, WAL mode for concurrent reads.
//
// # Lifecycle
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/atrium.db", WALMode: true, BusyTimeout: 5})
//	if err != nil { ... }
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil { ... }
//
// Migrations are embedded via the migrations package and applied in version
// order, each in its own transaction.
package database
