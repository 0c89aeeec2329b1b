// File: internal/jobs/prop_index.go
package jobs

import (
	"context"
	"sync"
	"time"

	"propspot_backend/internal/config"
	"propspot_backend/internal/metrics"
	"propspot_backend/internal/platform/elasticsearch"
	"propspot_backend/internal/prop"
	"propspot_backend/internal/prop/esutil"

	"go.uber.org/zap"
)

const (
	propIndexJobName = "prop_index"
	propIndexTimeout = 2 * time.Minute
)

// SnapshotSource yields whole-collection prop snapshots, latest first on subscribe.
type SnapshotSource interface {
	Subscribe() (<-chan []prop.Prop, func())
}

// SnapshotIndexer replaces the contents of the search index.
type SnapshotIndexer interface {
	Replace(ctx context.Context, docs map[string][]byte) (elasticsearch.IndexStats, error)
}

// PropIndexJob follows the props mirror and writes each settled snapshot into the search index.
// Snapshots arriving within the debounce window of each other collapse into the last one.
type PropIndexJob struct {
	source   SnapshotSource
	indexer  SnapshotIndexer
	debounce time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPropIndexJob creates a new PropIndexJob.
func NewPropIndexJob(source SnapshotSource, indexer SnapshotIndexer, cfg *config.Config, logger *zap.Logger) *PropIndexJob {
	return &PropIndexJob{
		source:   source,
		indexer:  indexer,
		debounce: cfg.PropIndexDebounce,
		logger:   logger.Named("PropIndexJob"),
	}
}

// Start begins following the source. A second Start while running does nothing.
func (j *PropIndexJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	snapshots, unsubscribe := j.source.Subscribe()
	j.cancel = cancel
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		defer unsubscribe()
		j.follow(ctx, snapshots)
	}()
	j.logger.Info("Prop index job started", zap.Duration("debounce", j.debounce))
}

func (j *PropIndexJob) follow(ctx context.Context, snapshots <-chan []prop.Prop) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var latest []prop.Prop
	pending := false
	for {
		select {
		case <-ctx.Done():
			return
		case props, ok := <-snapshots:
			if !ok {
				return
			}
			latest, pending = props, true
			if j.debounce <= 0 {
				j.index(ctx, latest)
				pending = false
				continue
			}
			timer.Reset(j.debounce)
		case <-timer.C:
			if pending {
				j.index(ctx, latest)
				pending = false
			}
		}
	}
}

func (j *PropIndexJob) index(ctx context.Context, props []prop.Prop) {
	ctx, cancel := context.WithTimeout(ctx, propIndexTimeout)
	defer cancel()
	if _, err := j.SyncOnce(ctx, props); err != nil {
		j.logger.Error("Prop index refresh failed", zap.Int("count", len(props)), zap.Error(err))
	}
}

// SyncOnce writes one snapshot into the index.
func (j *PropIndexJob) SyncOnce(ctx context.Context, props []prop.Prop) (elasticsearch.IndexStats, error) {
	docs, err := esutil.SnapshotDocuments(props)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(propIndexJobName, "failed").Inc()
		return elasticsearch.IndexStats{}, err
	}
	stats, err := j.indexer.Replace(ctx, docs)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(propIndexJobName, "failed").Inc()
		return stats, err
	}

	result := "ok"
	if stats.Failed > 0 {
		result = "partial"
	}
	metrics.JobRunsTotal.WithLabelValues(propIndexJobName, result).Inc()
	j.logger.Info("Prop index refreshed",
		zap.Uint64("indexed", stats.Indexed), zap.Uint64("failed", stats.Failed), zap.Int64("deleted", stats.Deleted))
	return stats, nil
}

// Stop ends the job and waits for an in-flight refresh to finish.
func (j *PropIndexJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.logger.Info("Prop index job stopped")
}
