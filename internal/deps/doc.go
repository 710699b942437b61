// Package deps checks that external programs are available before
// schedconvert tries to launch them.
package deps
