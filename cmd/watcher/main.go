package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/config"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/hanoiair"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/ingest"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

// defaultGridTiles covers the Hanoi center at zoom 9.
var defaultGridTiles = []hanoiair.Tile{
	{Col: 812, Row: 196, Zoom: 9},
	{Col: 812, Row: 197, Zoom: 9},
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("watcher failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Init(ctx); err != nil {
		return err
	}

	w := &watcher{
		cfg:    cfg,
		store:  st,
		client: hanoiair.New(cfg.FeedBaseURL, cfg.RequestTimeout),
		pipe:   ingest.New(st, logger, ingest.NewMetrics(), clockwork.NewRealClock(), cfg.BatchBudget),
		logger: logger,
	}

	// One pass on boot, then on the configured cadence.
	w.runAll(ctx)

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.FeedInterval).Do(func() { w.runAll(ctx) }); err != nil {
		return err
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	logger.Info("watcher started", "interval", cfg.FeedInterval.String())
	<-ctx.Done()
	logger.Info("watcher stopping")
	return nil
}

type watcher struct {
	cfg    config.Config
	store  *store.Store
	client *hanoiair.Client
	pipe   *ingest.Pipeline
	logger *slog.Logger
}

// runAll pulls every feed once. Feed kinds run concurrently; batches within a
// kind serialize on the store's advisory lock.
func (w *watcher) runAll(ctx context.Context) {
	w.logger.Info("feed cycle started")
	// Daily aggregates settle upstream at end of day, so pull yesterday.
	day := time.Now().UTC().AddDate(0, 0, -1)

	feeds := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{ingest.FeedDistricts, w.runDistricts},
		{ingest.FeedCurrent, func(ctx context.Context) error { return w.runCurrent(ctx, day) }},
		{ingest.FeedRankings, func(ctx context.Context) error { return w.runRankings(ctx, day) }},
		{ingest.FeedForecast, func(ctx context.Context) error { return w.runForecast(ctx, day) }},
		{ingest.FeedHistorical, func(ctx context.Context) error { return w.runHistorical(ctx, day) }},
		{ingest.FeedGrid, w.runGrid},
	}

	var wg sync.WaitGroup
	for _, feed := range feeds {
		feed := feed
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := feed.run(ctx); err != nil {
				w.logger.Error("feed cycle error", "feed", feed.name, "error", err)
			}
		}()
	}
	wg.Wait()
	w.logger.Info("feed cycle finished")
}

func (w *watcher) runDistricts(ctx context.Context) error {
	internal, err := w.client.DistrictsInternal(ctx)
	if err != nil {
		w.pipe.LogFeedError(ctx, ingest.FeedDistricts, err)
		return err
	}
	admin, err := w.client.DistrictsAdministrative(ctx)
	if err != nil {
		w.pipe.LogFeedError(ctx, ingest.FeedDistricts, err)
		return err
	}

	rows := append(internal, admin...)
	if w.cfg.DryRun {
		w.logger.Info("dry-run: skipping districts ingest", "rows", len(rows))
		return nil
	}
	return w.pipe.IngestDistricts(ctx, rows)
}

func (w *watcher) runCurrent(ctx context.Context, day time.Time) error {
	rows, err := w.client.CurrentStatistics(ctx, day)
	if err != nil {
		w.pipe.LogFeedError(ctx, ingest.FeedCurrent, err)
		return err
	}
	if w.cfg.DryRun {
		w.logger.Info("dry-run: skipping current ingest", "rows", len(rows))
		return nil
	}
	return w.pipe.IngestCurrent(ctx, rows)
}

func (w *watcher) runRankings(ctx context.Context, day time.Time) error {
	rows, err := w.client.Rankings(ctx, day)
	if err != nil {
		w.pipe.LogFeedError(ctx, ingest.FeedRankings, err)
		return err
	}
	if w.cfg.DryRun {
		w.logger.Info("dry-run: skipping rankings ingest", "rows", len(rows))
		return nil
	}
	return w.pipe.IngestRankings(ctx, rows)
}

// runForecast pulls each known district's series around the base date. The
// districts feed must have run at least once before this produces rows.
func (w *watcher) runForecast(ctx context.Context, day time.Time) error {
	districts, err := w.store.ListDistricts(ctx, store.SeedProvinceID)
	if err != nil {
		w.pipe.LogFeedError(ctx, ingest.FeedForecast, err)
		return err
	}

	rows := make([]ingest.ForecastRow, 0)
	for _, d := range districts {
		if d.InternalID == nil {
			continue
		}
		series, err := w.client.DistrictSeries(ctx, *d.InternalID, d.Name, day, w.cfg.BackcastDays, w.cfg.ForecastDays)
		if err != nil {
			w.logger.Warn("forecast fetch failed", "district", d.Name, "error", err)
			continue
		}
		rows = append(rows, series...)
	}

	if w.cfg.DryRun {
		w.logger.Info("dry-run: skipping forecast ingest", "rows", len(rows))
		return nil
	}
	return w.pipe.IngestForecast(ctx, rows)
}

func (w *watcher) runHistorical(ctx context.Context, day time.Time) error {
	rows, err := w.client.ProvinceSeries(ctx, day, w.cfg.HistoricalDays)
	if err != nil {
		w.pipe.LogFeedError(ctx, ingest.FeedHistorical, err)
		return err
	}
	if w.cfg.DryRun {
		w.logger.Info("dry-run: skipping historical ingest", "rows", len(rows))
		return nil
	}
	return w.pipe.IngestHistorical(ctx, rows)
}

func (w *watcher) runGrid(ctx context.Context) error {
	rows := make([]ingest.GridRow, 0)
	for _, tile := range defaultGridTiles {
		tileRows, err := w.client.GridTile(ctx, tile)
		if err != nil {
			w.logger.Warn("grid tile fetch failed", "col", tile.Col, "row", tile.Row, "error", err)
			continue
		}
		rows = append(rows, tileRows...)
	}

	if w.cfg.DryRun {
		w.logger.Info("dry-run: skipping grid ingest", "rows", len(rows))
		return nil
	}
	return w.pipe.IngestGrid(ctx, rows)
}
