// Package dispatch fans an image directory out to batch workers.
//
// A Dispatcher lists the regular files of the configured directory, splits
// them into contiguous index ranges, prepares the converted/ output area and
// one temp{x}/ scratch directory per batch, and launches one detached worker
// per batch with the arguments "x start end dir". Workers are released after
// launch unless dispatch.wait is set, in which case their exit codes are
// collected. An advisory lock in the state directory keeps two dispatchers
// from fanning out the same directory concurrently.
package dispatch
