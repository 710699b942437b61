package dispatch

import (
	"schedconvert/internal/batch"
	"schedconvert/internal/config"
	"schedconvert/internal/imagedir"
	"schedconvert/internal/worker"
	"schedconvert/internal/workspace"
)

// PlannedBatch describes a batch without launching it.
type PlannedBatch struct {
	Batch   batch.Batch `json:"batch"`
	Images  int         `json:"images"`
	Bytes   int64       `json:"bytes"`
	First   string      `json:"first,omitempty"`
	Last    string      `json:"last,omitempty"`
	TempDir string      `json:"temp_dir"`
	Command []string    `json:"command"`
}

// Preview is the dry-run view of a dispatch.
type Preview struct {
	Directory string         `json:"directory"`
	OutputDir string         `json:"output_dir"`
	NumImages int            `json:"num_images"`
	Partition string         `json:"partition"`
	Batches   []PlannedBatch `json:"batches"`
}

// CommandLiner renders the command a launcher would run for an invocation.
type CommandLiner interface {
	CommandLine(inv worker.Invocation) []string
}

// Plan lists and partitions the configured directory without touching the
// filesystem or starting workers. commands may be nil.
func Plan(cfg *config.Config, commands CommandLiner) (*Preview, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireDirectory(); err != nil {
		return nil, err
	}
	policy, err := batch.ParsePolicy(cfg.Dispatch.Partition)
	if err != nil {
		return nil, err
	}
	dir := cfg.Dispatch.Directory
	listing, err := imagedir.List(dir)
	if err != nil {
		return nil, err
	}
	batches, err := batch.Plan(listing.Count(), cfg.Dispatch.BatchCount, policy)
	if err != nil {
		return nil, err
	}
	layout := workspace.New(dir, cfg.Dispatch.OutputDir, cfg.Dispatch.TempPrefix)

	preview := &Preview{
		Directory: dir,
		OutputDir: layout.OutputDir(),
		NumImages: listing.Count(),
		Partition: string(policy),
		Batches:   make([]PlannedBatch, 0, len(batches)),
	}
	for _, b := range batches {
		first, last := listing.Span(b)
		planned := PlannedBatch{
			Batch:   b,
			Images:  b.Len(),
			Bytes:   listing.Size(b),
			First:   first,
			Last:    last,
			TempDir: layout.TempDir(b.Index),
		}
		if commands != nil {
			planned.Command = commands.CommandLine(worker.Invocation{Batch: b.Index, Start: b.Start, End: b.End, Dir: dir})
		}
		preview.Batches = append(preview.Batches, planned)
	}
	return preview, nil
}
