// Package worker launches the external conversion program once per batch.
//
// A worker receives four positional arguments, in order: batch index, start
// image index, end image index, and the image directory. Start returns as soon
// as the process is running; the worker lives in its own session so it keeps
// going after the dispatcher exits or its terminal closes. Callers that want
// exit statuses keep the Handle and call Wait; everyone else calls Release.
package worker
