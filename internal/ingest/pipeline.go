package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

// Feed kinds. Batches for the same kind serialize on the store's advisory
// lock; different kinds may run concurrently.
const (
	FeedDistricts  = "districts"
	FeedCurrent    = "current"
	FeedRankings   = "rankings"
	FeedForecast   = "forecast"
	FeedHistorical = "historical"
	FeedGrid       = "grid"
)

// Sink is the slice of the store the pipeline writes through.
type Sink interface {
	WithFeedLock(ctx context.Context, feed string, fn func(ctx context.Context) error) error
	ResolveDistrict(ctx context.Context, kind store.ExternalIDKind, externalID, name string) (*store.District, error)
	GetProvince(ctx context.Context, id string) (*store.Province, error)
	UpsertDistrict(ctx context.Context, d store.District) error
	UpsertCurrentReading(ctx context.Context, r store.CurrentReading) error
	UpsertRanking(ctx context.Context, r store.RankingEntry) error
	UpsertForecast(ctx context.Context, f store.ForecastPoint) error
	UpsertHistoricalPoint(ctx context.Context, h store.HistoricalPoint) error
	UpsertGridPoint(ctx context.Context, g store.GridPoint) error
	AppendIngestionLog(ctx context.Context, e store.IngestionLogEntry) (int64, error)
}

// Pipeline converts staged feed batches into store writes. Rows commit
// independently, so a batch cut short by its budget keeps what it already
// wrote and a re-run converges on the same state.
type Pipeline struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
	clock   clockwork.Clock
	budget  time.Duration
}

// New creates a Pipeline. budget bounds the wall-clock time of one batch;
// zero means no bound.
func New(sink Sink, logger *slog.Logger, metrics *Metrics, clock clockwork.Clock, budget time.Duration) *Pipeline {
	return &Pipeline{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		budget:  budget,
	}
}

// errRow marks a row-level failure: the row is dropped and counted, the batch
// continues. Everything else is fatal for the batch.
var errRow = errors.New("row dropped")

func rowError(err error) error {
	return fmt.Errorf("%w: %v", errRow, err)
}

// IngestDistricts applies one districts-feed batch.
func (p *Pipeline) IngestDistricts(ctx context.Context, rows []DistrictRow) error {
	return p.run(ctx, FeedDistricts, len(rows), func(ctx context.Context, i int) error {
		d, err := rows[i].parse()
		if err != nil {
			return rowError(err)
		}
		return p.sink.UpsertDistrict(ctx, d)
	})
}

// IngestCurrent applies one daily-statistics batch. Districts unknown to the
// store are created as stubs keyed by the feed's internal id.
func (p *Pipeline) IngestCurrent(ctx context.Context, rows []CurrentRow) error {
	return p.run(ctx, FeedCurrent, len(rows), func(ctx context.Context, i int) error {
		reading, err := rows[i].parse()
		if err != nil {
			return rowError(err)
		}
		if _, err := p.sink.ResolveDistrict(ctx, store.InternalID, rows[i].DistrictID, rows[i].DistrictName); err != nil {
			return err
		}
		reading.DistrictInternalID = rows[i].DistrictID
		return p.sink.UpsertCurrentReading(ctx, reading)
	})
}

// IngestRankings applies one ranking batch. The delta column is recomputed by
// the store on every write.
func (p *Pipeline) IngestRankings(ctx context.Context, rows []RankingRow) error {
	return p.run(ctx, FeedRankings, len(rows), func(ctx context.Context, i int) error {
		entry, err := rows[i].parse()
		if err != nil {
			return rowError(err)
		}
		if _, err := p.sink.ResolveDistrict(ctx, store.AdministrativeID, rows[i].DistrictAdminID, rows[i].DistrictName); err != nil {
			return err
		}
		entry.DistrictAdminID = rows[i].DistrictAdminID
		return p.sink.UpsertRanking(ctx, entry)
	})
}

// IngestForecast applies one forecast batch. days_ahead and the
// classification booleans are recomputed by the store on every write.
func (p *Pipeline) IngestForecast(ctx context.Context, rows []ForecastRow) error {
	return p.run(ctx, FeedForecast, len(rows), func(ctx context.Context, i int) error {
		point, err := rows[i].parse()
		if err != nil {
			return rowError(err)
		}
		if _, err := p.sink.ResolveDistrict(ctx, store.InternalID, rows[i].DistrictID, rows[i].DistrictName); err != nil {
			return err
		}
		point.DistrictInternalID = rows[i].DistrictID
		return p.sink.UpsertForecast(ctx, point)
	})
}

// IngestHistorical applies one province-wide historical batch. Unlike
// districts, an unknown province is never auto-created; such rows drop.
func (p *Pipeline) IngestHistorical(ctx context.Context, rows []HistoricalRow) error {
	return p.run(ctx, FeedHistorical, len(rows), func(ctx context.Context, i int) error {
		point, err := rows[i].parse()
		if err != nil {
			return rowError(err)
		}
		province, err := p.sink.GetProvince(ctx, point.ProvinceID)
		if err != nil {
			return err
		}
		if province == nil {
			return rowError(fmt.Errorf("unknown province %s", point.ProvinceID))
		}
		return p.sink.UpsertHistoricalPoint(ctx, point)
	})
}

// IngestGrid applies one spatial grid batch.
func (p *Pipeline) IngestGrid(ctx context.Context, rows []GridRow) error {
	return p.run(ctx, FeedGrid, len(rows), func(ctx context.Context, i int) error {
		point, err := rows[i].parse()
		if err != nil {
			return rowError(err)
		}
		return p.sink.UpsertGridPoint(ctx, point)
	})
}

// LogFeedError records a total staging failure (fetch error, unreadable
// payload) as an error audit entry with zero rows written.
func (p *Pipeline) LogFeedError(ctx context.Context, feed string, cause error) {
	msg := cause.Error()
	p.appendLog(ctx, store.IngestionLogEntry{
		Endpoint:     feed,
		Status:       store.LogStatusError,
		ErrorMessage: &msg,
	})
	p.logger.Error("feed batch failed before staging", "feed", feed, "error", cause)
}

// run executes one batch under the feed's advisory lock and budget: apply each
// row, absorb row-level errors, stop on batch-level errors or budget
// exhaustion, then append exactly one audit entry.
func (p *Pipeline) run(ctx context.Context, feed string, total int, apply func(ctx context.Context, i int) error) error {
	return p.sink.WithFeedLock(ctx, feed, func(ctx context.Context) error {
		if p.budget > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.budget)
			defer cancel()
		}

		start := p.clock.Now()
		p.metrics.BatchRunning.Set(1)
		defer p.metrics.BatchRunning.Set(0)
		p.metrics.RowsStaged.WithLabelValues(feed).Add(float64(total))

		status := store.LogStatusOK
		written := 0
		dropped := 0
		var firstErr error
		var batchErr error

		if total == 0 {
			status = store.LogStatusError
			firstErr = errors.New("empty batch")
		}

		for i := 0; i < total; i++ {
			if ctx.Err() != nil {
				status = store.LogStatusIncomplete
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				batchErr = ctx.Err()
				break
			}

			err := apply(ctx, i)
			if err == nil {
				written++
				continue
			}
			if errors.Is(err, errRow) {
				dropped++
				p.metrics.RowsDropped.WithLabelValues(feed).Inc()
				if firstErr == nil {
					firstErr = err
				}
				p.logger.Warn("row dropped", "feed", feed, "row", i, "error", err)
				continue
			}
			if ctx.Err() != nil {
				status = store.LogStatusIncomplete
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				batchErr = ctx.Err()
				break
			}
			status = store.LogStatusError
			if firstErr == nil {
				firstErr = err
			}
			batchErr = fmt.Errorf("feed %s row %d: %w", feed, i, err)
			break
		}

		if status == store.LogStatusOK && dropped > 0 {
			status = store.LogStatusPartial
		}
		p.metrics.RowsUpserted.WithLabelValues(feed).Add(float64(written))
		p.metrics.BatchDuration.Observe(p.clock.Since(start).Seconds())

		entry := store.IngestionLogEntry{
			Endpoint:       feed,
			Status:         status,
			RecordsFetched: written,
			CreatedAt:      p.clock.Now().UTC(),
		}
		if firstErr != nil {
			msg := firstErr.Error()
			entry.ErrorMessage = &msg
		}
		p.appendLog(ctx, entry)

		p.logger.Info("feed batch finished",
			"feed", feed,
			"status", status,
			"staged", total,
			"written", written,
			"dropped", dropped,
		)
		return batchErr
	})
}

// appendLog writes the audit entry even when the batch context has expired.
func (p *Pipeline) appendLog(ctx context.Context, entry store.IngestionLogEntry) {
	if _, err := p.sink.AppendIngestionLog(context.WithoutCancel(ctx), entry); err != nil {
		p.logger.Error("append ingestion log failed", "endpoint", entry.Endpoint, "error", err)
	}
}
