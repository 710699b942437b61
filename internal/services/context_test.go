package services_test

import (
	"context"
	"testing"

	"schedconvert/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithBatch(ctx, 4)
	ctx = services.WithStage(ctx, "spawn")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if batch, ok := services.BatchFromContext(ctx); !ok || batch != 4 {
		t.Fatalf("unexpected batch: %v %v", batch, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "spawn" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestBatchZeroIsPresent(t *testing.T) {
	ctx := services.WithBatch(context.Background(), 0)
	if batch, ok := services.BatchFromContext(ctx); !ok || batch != 0 {
		t.Fatalf("expected batch 0 to be recorded, got %v %v", batch, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.BatchFromContext(ctx); ok {
		t.Fatal("expected no batch value")
	}
}
