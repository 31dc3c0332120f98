// Package notifications delivers push notifications through ntfy.
//
// The service is a no-op when no topic is configured, so callers never need
// to branch on whether notifications are enabled.
package notifications
