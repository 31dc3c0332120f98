// Package lifecycle turns periodic application directory snapshots into
// launch and termination events for the watched vendor namespace.
//
// The poller keys snapshots by PID, so a multi-process application produces
// one event per process. While a watcher is stopped no snapshots are taken;
// launches and exits that happen in that window are never synthesized after
// a restart because the first poll only establishes a new baseline.
package lifecycle
