package database

import (
	"context"
	"fmt"
	"time"
)

// MaxListLimit caps a single ListGenerations page.
const MaxListLimit = 500

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RecordGeneration inserts g and sets its ID.
func (d *Database) RecordGeneration(ctx context.Context, g *Generation) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_generation", start, err) }()

	if g.Origin == "" {
		g.Origin = OriginWatcher
	}
	if g.FinishedAt.IsZero() {
		g.FinishedAt = time.Now()
	}
	if g.StartedAt.IsZero() {
		g.StartedAt = g.FinishedAt
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO generations (
			origin, source_name, output_path, prompt, size, used_fallback,
			status, stage, error, source_removed, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Origin, g.SourceName, g.OutputPath, g.Prompt, g.Size, boolToInt(g.UsedFallback),
		g.Status, g.Stage, g.Error, boolToInt(g.SourceRemoved),
		g.StartedAt.UnixMilli(), g.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}

	g.ID, err = result.LastInsertId()
	return err
}

// ListGenerations returns records newest first. limit is clamped to
// [1, MaxListLimit].
func (d *Database) ListGenerations(ctx context.Context, limit, offset int) ([]Generation, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_generations", start, err) }()

	if limit <= 0 {
		limit = 50
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, origin, source_name, output_path, prompt, size, used_fallback,
		       status, stage, error, source_removed, started_at, finished_at
		FROM generations
		ORDER BY finished_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	out := make([]Generation, 0, limit)
	for rows.Next() {
		var g Generation
		var usedFallback, sourceRemoved int
		var startedAt, finishedAt int64
		if err = rows.Scan(
			&g.ID, &g.Origin, &g.SourceName, &g.OutputPath, &g.Prompt, &g.Size, &usedFallback,
			&g.Status, &g.Stage, &g.Error, &sourceRemoved, &startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.UsedFallback = usedFallback != 0
		g.SourceRemoved = sourceRemoved != 0
		g.StartedAt = time.UnixMilli(startedAt)
		g.FinishedAt = time.UnixMilli(finishedAt)
		out = append(out, g)
	}
	err = rows.Err()
	return out, err
}

// GetGenerationStats aggregates the whole history table.
func (d *Database) GetGenerationStats(ctx context.Context) (GenerationStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("generation_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats GenerationStats
	var lastFinish int64
	err = d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(used_fallback), 0),
			COALESCE(SUM(CASE WHEN origin = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? AND origin = ? AND source_removed = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(finished_at), 0)
		FROM generations`,
		StatusDone, StatusFailed, OriginManual, StatusDone, OriginWatcher,
	).Scan(&stats.Total, &stats.Done, &stats.Failed, &stats.Fallbacks, &stats.Manual, &stats.Leftovers, &lastFinish)
	if err != nil {
		return GenerationStats{}, fmt.Errorf("failed to read generation stats: %w", err)
	}

	if lastFinish > 0 {
		stats.LastFinish = time.UnixMilli(lastFinish)
	}
	return stats, nil
}
