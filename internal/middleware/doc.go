// Package middleware provides HTTP middleware for the Mentora API.
//
// # Available Middleware
//
// Core middleware components:
//
//   - RequestID: attaches a unique request ID to each request
//   - Logger: structured request logging via slog
//   - Recovery: converts panics into 500 responses
//   - CORS: cross-origin request handling
//   - Compress: gzip response compression
//
// Middleware is composed with Chain, which applies wrappers in order:
//
//	handler := middleware.Chain(mux,
//		middleware.Recovery,
//		middleware.RequestID,
//		middleware.Logger,
//	)
//
// # Context Values
//
// The request ID set by RequestID is accessible via GetRequestID(ctx).
package middleware
