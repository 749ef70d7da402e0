// Package cli implements the fleetdash command-line interface.
//
// Each Cobra command delegates to a plain function that takes its writers
// and options explicitly, so commands can be exercised in tests without a
// terminal.
//
// # Command Structure
//
//	fleetdash monitor              - Live fleet dashboard (Bubble Tea)
//	fleetdash list                 - One-shot fleet table
//	fleetdash note <json|->        - Explain a public note
//	fleetdash history [server]     - Recorded samples
//	fleetdash init                 - Create a config file
//	fleetdash config [set|show|path]
//	fleetdash version
//
// # Sources
//
// The dashboard is read through the client package: a WebSocket stream
// for the live dashboard when dashboard.transport is ws, REST polling
// otherwise and for every one-shot command. With local.enabled, the
// machine running fleetdash joins the fleet through the local package.
//
// # Machine Output
//
// --json wraps every command's output in JSONEnvelope, including errors,
// which carry a stable code from mapErrorCode.
package cli
