// Package core provides the foundational domain types shared by the rephrase
// pipeline. It defines:
//
//   - Messages (persisted chat history records) and conversation turns
//   - Fixture records (tasks and calendar events) consumed as context
//   - Suggestions and their per-tier analysis
//   - Role-based content parts exchanged with model providers
//
// The package holds no behavior beyond small helpers on these types so that
// every other package can depend on it without cycles.
package core
