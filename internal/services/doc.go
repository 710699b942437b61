// Package services defines shared utilities consumed by the dispatcher and the
// CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, batch indexes, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     filesystem, configuration, or spawn problems and map them to exit codes.
//
// Use these helpers when wiring new dispatch logic so error handling and
// observability stay uniform.
package services
