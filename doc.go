// Package backend provides the Connectly API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/feed: Home and hashtag feed assembly
// - internal/notify: Notification creation and realtime dispatch
// - internal/websocket: WebSocket server for real-time updates
// - internal/database: Database connection and migrations
// - internal/cache: Redis client and cached counters
// - internal/middleware: HTTP middleware (rate limiting, metrics, etc.)
// - internal/telemetry: OpenTelemetry tracing setup
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
