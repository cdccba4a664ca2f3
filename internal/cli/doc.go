// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It binds
// cobra flags to the viper-backed configuration and dispatches to the app.
package cli
