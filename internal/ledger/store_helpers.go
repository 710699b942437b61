package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

// timestampLayout is fixed width so that text ordering in SQLite matches
// chronological ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, directory, worker, batch_count, num_images, partition, waited, started_at, finished_at, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		waited     int
		startedAt  string
		finishedAt sql.NullString
		message    sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.Directory, &run.Worker, &run.BatchCount, &run.NumImages,
		&run.Partition, &waited, &startedAt, &finishedAt, &message,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Waited = waited != 0
	run.Error = message.String

	ts, err := time.Parse(timestampLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = ts
	if finishedAt.Valid {
		done, err := time.Parse(timestampLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &done
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableIntPtr(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(timestampLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
