// Package config holds the runtime configuration of flowcalc and loads it
// from defaults, an optional config file, FLOWCALC_* environment variables
// and command-line flags, in that order of precedence.
package config
