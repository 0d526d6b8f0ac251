// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// builds the cobra command tree and translates flags and the project file
// into the application's configuration.
package cli
