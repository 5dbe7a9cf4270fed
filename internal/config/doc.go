// Package config manages application configuration for the Mentora API.
//
// Configuration is loaded from environment variables, organized into
// logical groups and validated once at startup:
//
//	cfg, err := config.Load()
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts)
//   - DatabaseConfig: SurrealDB connection settings
//   - MeetingConfig: third-party meeting provider credentials and retry bounds
//   - CalendarConfig: provider calendar integration toggle
//   - NotificationConfig: dispatcher and cleanup intervals
//   - RatesConfig: mentor hourly rates per session type
//
// Sensible defaults cover local development; production deployments set
// the provider credentials explicitly.
package config
