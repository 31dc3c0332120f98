// Package logging builds the slog loggers used across broom.
//
// The console handler renders compact single-line records with the component
// attribute promoted into the message prefix; the JSON handler emits
// machine-readable records for log shippers. Helpers standardize common
// attribute keys so daemon and CLI output stays greppable.
package logging
