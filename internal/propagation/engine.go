package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/orbitd/internal/metrics"
	"github.com/star/orbitd/internal/tle"
)

// Engine orchestrates keyframe generation for TLE datasets.
type Engine struct {
	store  *tle.Store
	pool   *WorkerPool
	config PropConfig
	logger *slog.Logger
}

// NewEngine creates a new propagation orchestrator.
func NewEngine(store *tle.Store, config PropConfig, logger *slog.Logger) *Engine {
	pool := NewWorkerPool(config.Workers, logger)
	return &Engine{
		store:  store,
		pool:   pool,
		config: config,
		logger: logger,
	}
}

// PropagateToTime generates a single keyframe at the given target time.
// Uses the current TLE dataset from the store.
func (e *Engine) PropagateToTime(ctx context.Context, targetTime time.Time) (*Keyframe, error) {
	ds := e.store.Get()
	if ds == nil {
		return nil, fmt.Errorf("no TLE dataset loaded")
	}

	e.logger.Debug("propagating",
		"satellite_count", len(ds.Satellites),
		"target_time", targetTime.UTC().Format(time.RFC3339),
		"workers", e.config.Workers,
	)

	start := time.Now()
	positions, successCount, errorCount := e.pool.PropagateBatch(ctx, ds.Satellites, targetTime)
	duration := time.Since(start)

	metrics.RecordPropagationBatch(duration, successCount, errorCount)

	e.logger.Debug("propagation complete",
		"success", successCount,
		"errors", errorCount,
		"duration_ms", duration.Milliseconds(),
	)

	return &Keyframe{
		Timestamp:  targetTime,
		Satellites: positions,
	}, nil
}

// GenerateKeyframes generates keyframes from startTime over the configured horizon
// at the configured step interval.
func (e *Engine) GenerateKeyframes(ctx context.Context, startTime time.Time) ([]*Keyframe, error) {
	ds := e.store.Get()
	if ds == nil {
		return nil, fmt.Errorf("no TLE dataset loaded")
	}

	numFrames := int(e.config.Horizon/e.config.Step) + 1
	keyframes := make([]*Keyframe, 0, numFrames)

	for i := 0; i < numFrames; i++ {
		select {
		case <-ctx.Done():
			return keyframes, ctx.Err()
		default:
		}

		targetTime := startTime.Add(time.Duration(i) * e.config.Step)
		kf, err := e.PropagateToTime(ctx, targetTime)
		if err != nil {
			return keyframes, fmt.Errorf("keyframe %d at %s: %w", i, targetTime.Format(time.RFC3339), err)
		}
		keyframes = append(keyframes, kf)
	}

	return keyframes, nil
}
