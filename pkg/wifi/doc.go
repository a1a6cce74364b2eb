// Package wifi provides a simulated hub WiFi subsystem for running the
// cross-validator agent off-target.
package wifi
