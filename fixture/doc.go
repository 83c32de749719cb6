// Package fixture is the read-only context store backing the task and
// calendar rewrite steps. Fixtures are loaded once at startup from JSON or
// YAML files and served as per-user copies; the store has no mutation API so
// it can be shared by concurrent requests without locking.
package fixture
