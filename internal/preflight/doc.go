// Package preflight provides readiness checks for the filesystem paths and
// programs a dispatch depends on.
//
// The "schedconvert check" command prints every result as a table, and
// "schedconvert run --preflight" refuses to fan out when a required check
// fails. Checks never modify the filesystem.
package preflight
