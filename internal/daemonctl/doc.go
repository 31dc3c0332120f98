// Package daemonctl orchestrates the broomd process from the CLI: launching
// it detached, waiting for its IPC socket, and stopping or force-killing it.
package daemonctl
