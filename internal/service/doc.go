// Package service implements the business logic layer for the Mentora API.
//
// The service package contains the entitlement ledger commands, the
// meeting-provisioning workflow, the notification/calendar reaction
// handler, the notification queue service and the event bus that sequences
// them.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with
//     repository and gateway dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation
//
// # Repository and Gateway Interfaces
//
// Services define the repository and gateway interfaces they consume,
// allowing:
//
//   - Easy mocking for unit tests
//   - Decoupling from specific database and provider implementations
//   - Clear contracts for data access requirements
//
// # Event Flow
//
// The provisioning workflow is event-driven:
//
//	session.created ──▶ MeetingProvisioner ──▶ meeting.operation_result
//	                                                   │
//	                                                   ▼
//	                                        SessionReactionHandler
//	                                        (calendar + reminders)
//
// A provisioning step never lets an error escape onto the bus: failures
// become failed result events carrying the notify-audience policy, and the
// reaction handler's side effects are best-effort and independent of each
// other.
package service
