// Package killer terminates lingering vendor processes by pattern.
//
// Kills run through pkill -f and complete asynchronously; callers get the
// exit code and captured output through a callback. pkill exiting 1 means
// nothing matched, which is the normal outcome when the daemons already
// shut themselves down.
package killer
