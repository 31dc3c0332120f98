// Package ipc carries control traffic between the broom CLI and broomd over
// JSON-RPC on a Unix domain socket.
package ipc
