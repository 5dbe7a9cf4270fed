// Package repository implements the data access layer for the Mentora API.
//
// The repository package contains all database operations using SurrealDB.
// Each repository struct handles persistence for a specific domain entity.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods implement specific data operations (Save, FindByID, etc.)
//   - SurrealQL queries are used for all database interactions
//   - Results are parsed and mapped through the model Reconstruct functions
//
// # Append-Only Ledgers
//
// The ledger repositories never update or delete rows: every method is an
// insert or a read. Balance-affecting inserts go through guarded batch
// transactions (see LedgerRepository.SaveGuarded) so that a concurrent
// writer invalidating the balance the caller validated against aborts the
// commit instead of overdrawing the entitlement.
//
// # Query Patterns
//
// Common query patterns used:
//
//   - Parameterized queries with $variable syntax for security
//   - type::thing() for safe ID handling
//   - time::now() for automatic timestamps
//   - LET + IF/THROW guards inside batch transactions for invariants
//
// # Example Usage
//
//	repo := NewLedgerRepository(db)
//	balance, err := repo.CalculateBalance(ctx, studentID, "ONE_ON_ONE")
//	if err != nil {
//	    if errors.Is(err, database.ErrNotFound) {
//	        // No ledger rows yet
//	    }
//	    return err
//	}
package repository
