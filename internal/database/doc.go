// Package database provides SurrealDB connectivity for the Mentora API.
//
// The Database interface abstracts the driver behind three query methods
// (Query, QueryOne, Execute) plus connection management, so repositories
// and tests never touch the SurrealDB client directly.
//
// # Transactions Are Batches
//
// Transactions here are BATCH-BASED, not connection-level. BeginTx()
// accumulates statements in memory; Commit() wraps them in one
// BEGIN TRANSACTION / COMMIT TRANSACTION block and executes the whole
// thing atomically. Consequences:
//
//   - no statement sees the effects of an earlier statement until commit
//   - Rollback() just discards the accumulated statements
//   - everything succeeds or fails together at commit time
//
// The append-only ledger writes rely on exactly this: a balance guard and
// the insert ship as a single batch, so a concurrent writer cannot slip a
// row in between the check and the write. Prefer the AtomicBatch helper
// in transaction.go over raw BeginTx().
//
// # Error Types
//
// Sentinels for common failure cases, matched with errors.Is():
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique constraint violation
//   - ErrConnection: connection or handshake failure
//   - ErrQuery: query execution failure
//
// # Usage
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "mentora",
//	    Database:  "main",
//	    User:      "root",
//	    Password:  "secret",
//	})
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
//	row, err := db.QueryOne(ctx,
//	    "SELECT * FROM service_ledger WHERE id = $id",
//	    map[string]interface{}{"id": id})
package database
