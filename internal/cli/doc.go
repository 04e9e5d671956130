// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates the project file and CLI flags into the application's
// configuration and dispatches each command to the app package.
package cli
