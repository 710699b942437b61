// Package config loads, normalizes, and validates schedconvert configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCHEDCONVERT_DIRECTORY. The Config type centralizes the image directory,
// batch count, and worker program so the dispatcher receives everything it
// needs in one value instead of reading globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
