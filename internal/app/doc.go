// Package app wires a flowcalc process together: it builds the logger from
// configuration, loads the startup sheet into a graph manager and runs the
// evaluation or serving lifecycle, decoupled from any specific entrypoint
// like the CLI.
package app
