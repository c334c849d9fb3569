// Package contract implements the assertions that guard the primitives'
// preconditions (bounds, duplicate keys, arena stack discipline).
//
// A failed assertion is a logic bug in the caller, not a runtime condition, so
// it panics with a *Violation instead of returning an error. Building with the
// framecore_nocheck tag sets Enabled to false and the compiler drops every
// check, which mirrors a release build where violations are undefined behavior.
package contract
