// Package nezha models server snapshots from a Nezha-style monitoring
// dashboard and derives the values the fleet views display.
//
// Two pure transformations live here:
//
//	Normalize  - snapshot + reference time -> DisplayMetrics
//	ParseNote  - public note text -> optional billing and plan records
//
// Neither returns an error. Missing or malformed telemetry reads as 0 and
// notes that are not recognized metadata read as absent, so a partially
// populated poll never breaks a render pass. Callers capture the reference
// time once per pass and pass the same value to every server.
package nezha
