// Package model defines domain entities and data structures for the Mentora API.
//
// The model package contains the value objects, aggregates, enums, event
// payloads and error definitions shared across all layers of the application.
//
// # Accounting Aggregates
//
// The two accounting aggregates are append-only:
//
//   - ServiceLedger: one row per balance-affecting operation on a student's
//     service entitlement (consumption, refund, adjustment)
//   - MentorPayableLedger: one row per amount accrued to a mentor, with
//     single-level adjustments and one-way settlement
//
// Both are constructed exclusively through validating factories and exposed
// through getter methods only; a constructed row is never mutated. The
// Reconstruct* functions rebuild rows from storage without re-validating.
//
// # Workflow Models
//
// Session, Meeting and QueuedNotification mirror persisted state that the
// meeting-provisioning workflow and the notification dispatcher read and
// write through repositories.
//
// # Events
//
// events.go defines the typed payloads published on the event bus, keyed by
// stable EventType strings:
//
//	bus.Publish(ctx, model.Event{
//	    Type: model.EventSessionCreated,
//	    Data: model.SessionCreatedEvent{SessionID: id},
//	})
//
// # Error Types
//
// Domain validation errors carry an ErrorCode and are matched with
// errors.As via IsDomainError:
//
//	if model.IsDomainError(err, model.ErrCodeInsufficientBalance) {
//	    // reject the consumption request
//	}
package model
