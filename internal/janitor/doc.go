// Package janitor decides when to sweep lingering vendor processes.
//
// The controller tracks application lifecycle events and runs a cleanup pass
// once every real vendor application has exited and a grace period has gone
// by without another exit. The lifecycle watcher is suspended around the
// live-application query so the snapshot cannot race the poller; it is
// restarted on every exit path. Cleanup failures are absorbed: they are
// logged and recorded, never escalated into daemon crashes.
package janitor
