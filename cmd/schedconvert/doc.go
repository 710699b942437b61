// Package main hosts the schedconvert CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once per invocation, applies
// flag overrides, and hands the result to the dispatch, preflight, and ledger
// packages. "run" fans a directory out to worker processes, "plan" shows the
// batches without launching anything, "check" verifies paths and the worker
// program, "history" reads the run ledger, and "config" scaffolds and
// validates configuration files.
package main
