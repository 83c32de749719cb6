// Package logging provides a minimal logging interface and adapters for the
// rephrase service.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the coordinator, steps and HTTP server use. This package
// includes:
//
//   - Logger interface for dependency injection
//   - PipelineLogger wrapping Go's structured logging with component and
//     request scoping plus pipeline specific helpers
//   - NoOpLogger for silent operation (tests, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	coord := coordinator.New(store, steps, func(o *coordinator.Options) { o.Logger = logger })
package logging
