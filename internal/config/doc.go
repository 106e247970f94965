// Package config defines the settings used by the lock binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the serial link parameters, the control node's store
// location, the panel's response timeout and logging options.
package config
