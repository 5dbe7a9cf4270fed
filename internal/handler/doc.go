// Package handler contains the HTTP endpoints of the Mentora API:
// entitlement ledger commands and queries, mentor earnings operations,
// the booking-layer session event intake, and the meeting provider
// webhook. Handlers translate HTTP to service calls and map errors to
// RFC 9457 problem responses; no business rules live here.
package handler
