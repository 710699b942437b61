package batch_test

import (
	"errors"
	"testing"

	"schedconvert/internal/batch"
	"schedconvert/internal/services"
)

func TestPlanFloorMatchesHundredOverFifteen(t *testing.T) {
	batches, err := batch.Plan(100, 15, batch.PolicyFloor)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(batches) != 15 {
		t.Fatalf("expected 15 batches, got %d", len(batches))
	}
	for i := 0; i < 14; i++ {
		want := batch.Batch{Index: i, Start: i * 6, End: i*6 + 6}
		if batches[i] != want {
			t.Fatalf("batch %d: got %v want %v", i, batches[i], want)
		}
	}
	if last := batches[14]; last.Start != 84 || last.End != 100 {
		t.Fatalf("expected last batch [84,100), got %v", last)
	}
	if err := batch.Validate(batches, 100); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestPlanBalancedSpreadsRemainder(t *testing.T) {
	batches, err := batch.Plan(100, 15, batch.PolicyBalanced)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i, b := range batches {
		want := 6
		if i < 10 {
			want = 7
		}
		if b.Len() != want {
			t.Fatalf("batch %d: len %d want %d", i, b.Len(), want)
		}
	}
	if err := batch.Validate(batches, 100); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestPlanZeroImages(t *testing.T) {
	for _, policy := range []batch.Policy{batch.PolicyFloor, batch.PolicyBalanced} {
		batches, err := batch.Plan(0, 5, policy)
		if err != nil {
			t.Fatalf("%s: Plan: %v", policy, err)
		}
		if len(batches) != 5 {
			t.Fatalf("%s: expected 5 batches, got %d", policy, len(batches))
		}
		for _, b := range batches {
			if b.Start != 0 || b.End != 0 || !b.Empty() {
				t.Fatalf("%s: expected [0,0), got %v", policy, b)
			}
		}
	}
}

func TestPlanMoreBatchesThanImages(t *testing.T) {
	floor, err := batch.Plan(3, 5, batch.PolicyFloor)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i := 0; i < 4; i++ {
		if !floor[i].Empty() {
			t.Fatalf("expected floor batch %d empty, got %v", i, floor[i])
		}
	}
	if floor[4].Start != 0 || floor[4].End != 3 {
		t.Fatalf("expected last floor batch [0,3), got %v", floor[4])
	}

	balanced, err := batch.Plan(3, 5, batch.PolicyBalanced)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i, b := range balanced {
		want := 0
		if i < 3 {
			want = 1
		}
		if b.Len() != want {
			t.Fatalf("balanced batch %d: len %d want %d", i, b.Len(), want)
		}
	}
}

func TestPlanCoversEveryIndexExactlyOnce(t *testing.T) {
	for _, policy := range []batch.Policy{batch.PolicyFloor, batch.PolicyBalanced} {
		for num := 0; num <= 60; num++ {
			for count := 1; count <= 17; count++ {
				batches, err := batch.Plan(num, count, policy)
				if err != nil {
					t.Fatalf("%s %d/%d: %v", policy, num, count, err)
				}
				if err := batch.Validate(batches, num); err != nil {
					t.Fatalf("%s %d/%d: %v", policy, num, count, err)
				}
				seen := make([]int, num)
				for _, b := range batches {
					for i := b.Start; i < b.End; i++ {
						seen[i]++
					}
				}
				for i, n := range seen {
					if n != 1 {
						t.Fatalf("%s %d/%d: index %d covered %d times", policy, num, count, i, n)
					}
				}
			}
		}
	}
}

func TestPlanRejectsNonPositiveCount(t *testing.T) {
	for _, count := range []int{0, -1} {
		_, err := batch.Plan(10, count, batch.PolicyFloor)
		if !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("count %d: expected configuration error, got %v", count, err)
		}
	}
	if _, err := batch.Plan(-1, 2, batch.PolicyFloor); err == nil {
		t.Fatal("expected error for negative image count")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := batch.ParsePolicy(""); err != nil || p != batch.PolicyFloor {
		t.Fatalf("expected floor default, got %q %v", p, err)
	}
	if p, err := batch.ParsePolicy("balanced"); err != nil || p != batch.PolicyBalanced {
		t.Fatalf("expected balanced, got %q %v", p, err)
	}
	if _, err := batch.ParsePolicy("random"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidateDetectsGapsAndOverlaps(t *testing.T) {
	gap := []batch.Batch{{Index: 0, Start: 0, End: 2}, {Index: 1, Start: 3, End: 5}}
	if err := batch.Validate(gap, 5); err == nil {
		t.Fatal("expected gap to be reported")
	}
	short := []batch.Batch{{Index: 0, Start: 0, End: 2}}
	if err := batch.Validate(short, 5); err == nil {
		t.Fatal("expected short coverage to be reported")
	}
}
