// Package app contains the application logic behind the pipeliner commands.
// It owns the lifecycle of the persisted pipeline file: every command loads
// the snapshot, applies one operation and writes the snapshot back, so
// several invocations can follow each other without a daemon. The watch loop
// is the only long-running mode; it probes on a ticker next to an optional
// healthcheck server.
package app
