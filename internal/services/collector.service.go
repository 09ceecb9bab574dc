package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sysinfo/internal/models"

	"go.uber.org/zap"
)

const DefaultInterval = 60 * time.Second

// SamplePublisher is notified of every sample after it has been stored
type SamplePublisher interface {
	Publish(sample models.Sample)
}

// Collector samples the metrics source on a fixed interval and appends each
// reading to the history log.
type Collector struct {
	source    MetricsSource
	store     SampleWriter
	interval  time.Duration
	publisher SamplePublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewCollector creates a collector. publisher may be nil.
func NewCollector(source MetricsSource, store SampleWriter, interval time.Duration, publisher SamplePublisher, logger *zap.Logger) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Collector{
		source:    source,
		store:     store,
		interval:  interval,
		publisher: publisher,
		logger:    logger.Named("collector"),
		now:       time.Now,
	}
}

// Run takes one sample immediately and then one per interval until ctx is cancelled.
// A failed tick is logged and skipped; the next tick is the retry.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("Collector started", zap.Duration("interval", c.interval))
	defer c.logger.Info("Collector stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		sample, err := c.Tick(ctx)
		switch {
		case err == nil:
			c.logger.Debug("Sample stored", zap.Int64("id", sample.ID), zap.String("timestamp", sample.Timestamp))
		case ctx.Err() != nil:
			return
		case errors.Is(err, ErrStorageWrite):
			c.logger.Error("Skipping tick, sample not stored", zap.Error(err))
		default:
			c.logger.Warn("Skipping tick, reading failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick runs one sampling-and-append cycle.
// A source failure appends nothing, so it consumes no id.
func (c *Collector) Tick(ctx context.Context) (models.Sample, error) {
	sample, err := Snapshot(ctx, c.source, c.now())
	if err != nil {
		return models.Sample{}, err
	}

	if anomalies := sample.Anomalies(); len(anomalies) > 0 {
		c.logger.Warn("Reading outside expected ranges, storing unchanged", zap.Strings("anomalies", anomalies))
	}

	if _, err := c.store.Append(ctx, &sample); err != nil {
		return sample, err
	}

	if c.publisher != nil {
		c.publisher.Publish(sample)
	}
	return sample, nil
}

// Snapshot reads source once and builds an unsaved sample stamped with at.
// Every failure is reported as ErrSourceUnavailable.
func Snapshot(ctx context.Context, source MetricsSource, at time.Time) (models.Sample, error) {
	status, err := source.Sample(ctx)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return models.Sample{}, err
	}
	if status == nil {
		return models.Sample{}, fmt.Errorf("%w: empty reading", ErrSourceUnavailable)
	}

	sample, err := models.NewSample(*status, at)
	if err != nil {
		return models.Sample{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return sample, nil
}
