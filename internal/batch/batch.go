package batch

import (
	"fmt"

	"schedconvert/internal/services"
)

// Policy selects how the remainder of num/count is distributed.
type Policy string

const (
	PolicyFloor    Policy = "floor"
	PolicyBalanced Policy = "balanced"
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case PolicyFloor, "":
		return PolicyFloor, nil
	case PolicyBalanced:
		return PolicyBalanced, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "plan", "partition", fmt.Sprintf("unknown policy %q", value), nil)
	}
}

// Batch is the half-open image index range [Start, End) handed to one worker.
type Batch struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of images in the batch.
func (b Batch) Len() int { return b.End - b.Start }

// Empty reports whether the batch covers no images.
func (b Batch) Empty() bool { return b.End <= b.Start }

func (b Batch) String() string {
	return fmt.Sprintf("#%d [%d,%d)", b.Index, b.Start, b.End)
}

// Plan splits numImages into count batches using policy.
func Plan(numImages, count int, policy Policy) ([]Batch, error) {
	if count <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "plan", "partition", fmt.Sprintf("batch count must be positive, got %d", count), nil)
	}
	if numImages < 0 {
		return nil, fmt.Errorf("plan: negative image count %d", numImages)
	}

	per := numImages / count
	remainder := numImages % count
	batches := make([]Batch, count)

	switch policy {
	case PolicyFloor, "":
		for x := range count {
			start := x * per
			batches[x] = Batch{Index: x, Start: start, End: start + per}
		}
		batches[count-1].End = numImages
	case PolicyBalanced:
		start := 0
		for x := range count {
			size := per
			if x < remainder {
				size++
			}
			batches[x] = Batch{Index: x, Start: start, End: start + size}
			start += size
		}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "plan", "partition", fmt.Sprintf("unknown policy %q", policy), nil)
	}
	return batches, nil
}

// Validate checks that batches tile [0, numImages) exactly once.
func Validate(batches []Batch, numImages int) error {
	if len(batches) == 0 {
		return fmt.Errorf("plan has no batches")
	}
	next := 0
	for i, b := range batches {
		if b.Index != i {
			return fmt.Errorf("batch %d has index %d", i, b.Index)
		}
		if b.Start != next {
			return fmt.Errorf("batch %d starts at %d, want %d", i, b.Start, next)
		}
		if b.End < b.Start {
			return fmt.Errorf("batch %d ends before it starts: %s", i, b)
		}
		next = b.End
	}
	if next != numImages {
		return fmt.Errorf("plan ends at %d, want %d", next, numImages)
	}
	return nil
}
