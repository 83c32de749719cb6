// Package history houses the append-only log of sent messages and its
// implementations. Only explicit sends are recorded; suggestions never are.
//
// InMemoryStore and JSONFileStore live here. Networked and database backends
// live in sub-packages (sqlite, redis) so that callers only depend on the
// Store interface and the wiring layer decides which one to instantiate.
package history
