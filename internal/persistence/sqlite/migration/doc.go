// Package migration brings a SQLite database up to the latest known schema
// version.
//
// The system supports:
//
//   - An append-only Registry of steps keyed by ascending version number
//   - A single-row version table holding the current schema version
//   - Transactional step execution with rollback on failure
//   - SQL resources split into statements by SplitStatements
//
// A fresh database, with no row in the version table, is at version 0. Each
// step runs inside its own transaction together with the version update, so a
// step is either fully applied and recorded or not applied at all.
//
// Example usage:
//
//	registry := migration.DefaultRegistry()
//	engine := migration.NewEngine(db, registry, logger)
//	if _, err := engine.Upgrade(ctx); err != nil {
//		log.Fatalf("Migration failed: %v", err)
//	}
package migration
