// Command broom is the user-facing CLI for the broom desktop janitor. It
// manages the background daemon (start, stop, restart, status), triggers
// manual sweeps, inspects sweep history, and provides configuration helpers.
package main
