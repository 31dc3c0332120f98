// Package apps enumerates running desktop applications and derives their
// reverse-DNS identifiers.
//
// Identification prefers the systemd application scope unit recorded in the
// process cgroup (app[-launcher]-ID-RANDOM.scope); sandboxed processes that
// run outside an app scope fall back to the FLATPAK_ID environment variable.
// Processes with no determinable identifier are absent from directory results.
package apps
