// Package testutil provides test helpers for rosterview tests.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertIDs, AssertContainsAll)
//   - builders.go: record builders and synthetic rosters
//   - store_helpers.go: temp SQLite roster databases, optionally seeded
package testutil
