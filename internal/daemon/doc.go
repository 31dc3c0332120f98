// Package daemon assembles the long-running broomd process: the janitor
// controller, history store, notifier, and the single-instance file lock.
package daemon
