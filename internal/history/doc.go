// Package history persists sweep records in SQLite.
//
// Every cleanup pass the daemon runs, including the ones that decide not to
// kill anything, leaves one row behind so operators can audit what broom did
// and why. Old rows are purged on a retention schedule.
package history
