// Package database provides SQLite-based run history for webscraper.
//
// The HistoryDB stores:
//   - one row per run, holding the full report as JSON plus summary columns
//   - the latest metadata (status, content hash) of every page fetched
//
// The history command reads it back to list past runs and to tell whether
// the target or its linked page changed since the previous run.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Sufficient performance for a handful of rows per run
package database
