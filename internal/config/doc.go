// Package config defines the configuration model shared by every sparkfleet
// command.
//
// The [Config] struct is read from a YAML file (by default
// $XDG_CONFIG_HOME/sparkfleet/config.yaml) and then overridden by command line
// flags. Timeouts are tuned separately through environment variables, see
// [LoadTimeouts].
package config
