// Package services defines the shared error taxonomy for gateway code.
//
// Remote-source and destination gateways tag failures with sentinel errors so
// the collector can separate counted, expected failures (a study that cannot
// be found or staged) from fatal ones (network faults, bad configuration)
// using errors.Is.
package services
