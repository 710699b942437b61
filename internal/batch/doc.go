// Package batch partitions an image count into contiguous, disjoint index
// ranges, one per worker process.
//
// Two policies are supported. Floor gives every batch num/count images and
// hands the remainder to the last batch, matching the integer division the
// original conversion scripts used while no longer dropping the tail.
// Balanced spreads the remainder one image each over the first batches so no
// batch is more than one image larger than another.
//
// Every plan satisfies: batch[0].Start == 0, batch[i].End == batch[i+1].Start,
// and batch[n-1].End == num. Empty ranges are valid and still produce a batch.
package batch
