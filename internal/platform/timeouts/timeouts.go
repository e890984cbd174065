// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps the handler time for ordinary JSON requests.
const Request = 15 * time.Second

// Upload caps the handler time for multipart media uploads.
const Upload = 60 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// CleanupInterval is the period between expired-session sweeps.
const CleanupInterval = 5 * time.Minute
