// File: internal/jobs/image_resize.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"propspot_backend/internal/config"
	"propspot_backend/internal/imaging"
	"propspot_backend/internal/metrics"
	"propspot_backend/internal/platform/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	imageResizeJobName = "image_resize"
	imageResizeTimeout = 30 * time.Minute
)

// ResizeSummary counts what one pass over the bucket did.
type ResizeSummary struct {
	Scanned int
	Resized int
	Skipped int
	Failed  int
}

// ImageResizeJob writes the resized variant of every JPEG in the image bucket that lacks one.
type ImageResizeJob struct {
	bucket        storage.Bucket
	width         int
	schedule      string
	logger        *zap.Logger
	cronScheduler *cron.Cron
}

// NewImageResizeJob creates a new ImageResizeJob.
func NewImageResizeJob(bucket storage.Bucket, cfg *config.Config, logger *zap.Logger) *ImageResizeJob {
	cl := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &ImageResizeJob{
		bucket:        bucket,
		width:         cfg.ImageTargetWidth,
		schedule:      cfg.ImageResizeJobSchedule,
		logger:        logger.Named("ImageResizeJob"),
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules the job. An empty IMAGE_RESIZE_JOB_SCHEDULE leaves it unscheduled.
func (j *ImageResizeJob) SetupAndStart() error {
	if j.schedule == "" {
		j.logger.Info("Image resize job schedule not defined (IMAGE_RESIZE_JOB_SCHEDULE). Job will not run.")
		return nil
	}
	if j.bucket == nil {
		j.logger.Warn("Image resize job scheduled but no bucket configured (STORAGE_BUCKET). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(j.schedule, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule image resize job", zap.String("spec", j.schedule), zap.Error(err))
		return err
	}
	j.logger.Info("Image resize job scheduled", zap.String("spec", j.schedule), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *ImageResizeJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), imageResizeTimeout)
	defer cancel()
	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("Image resize job run failed", zap.Error(err))
	}
}

// RunOnce makes one pass over the bucket. Individual image failures are logged and
// counted; only a failure to list the bucket is returned.
func (j *ImageResizeJob) RunOnce(ctx context.Context) (ResizeSummary, error) {
	var sum ResizeSummary
	if j.bucket == nil {
		return sum, storage.ErrDisabled
	}

	j.logger.Info("Starting image resize job run...")
	names, err := j.bucket.List(ctx, "")
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(imageResizeJobName, "failed").Inc()
		return sum, err
	}

	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		if !imaging.IsJPEGName(name) || imaging.IsVariant(name) {
			continue
		}
		sum.Scanned++

		variant := imaging.VariantName(name)
		exists, err := j.bucket.Exists(ctx, variant)
		if err != nil {
			j.logger.Warn("Could not check resized variant", zap.String("object", variant), zap.Error(err))
			sum.Failed++
			continue
		}
		if exists {
			sum.Skipped++
			continue
		}

		if err := j.resizeOne(ctx, name, variant); err != nil {
			j.logger.Warn("Failed to resize image", zap.String("object", name), zap.Error(err))
			sum.Failed++
			continue
		}
		sum.Resized++
	}

	result := "ok"
	if sum.Failed > 0 {
		result = "partial"
	}
	metrics.JobRunsTotal.WithLabelValues(imageResizeJobName, result).Inc()
	j.logger.Info("Image resize job run completed",
		zap.Int("scanned", sum.Scanned), zap.Int("resized", sum.Resized),
		zap.Int("skipped", sum.Skipped), zap.Int("failed", sum.Failed))
	return sum, ctx.Err()
}

func (j *ImageResizeJob) resizeOne(ctx context.Context, name, variant string) error {
	rc, err := j.bucket.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	res, err := imaging.Resize(rc, j.width)
	if err != nil {
		return fmt.Errorf("resizing %s: %w", name, err)
	}
	if err := j.bucket.Write(ctx, variant, res.MIME, res.Data); err != nil {
		return err
	}
	j.logger.Debug("Image resized", zap.String("object", name), zap.String("variant", variant),
		zap.Int("width", res.Width), zap.Int("height", res.Height))
	return nil
}

// Stop gracefully stops the cron scheduler.
func (j *ImageResizeJob) Stop() {
	stopScheduler(j.cronScheduler, j.logger)
}

func stopScheduler(c *cron.Cron, logger *zap.Logger) {
	if c == nil {
		return
	}
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		logger.Warn("Job scheduler stop timed out.")
	}
}
