// Package scraper periodically fetches every supported program's website and
// records a snapshot of the page, so content changes between admission
// seasons are visible in the database.
package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"abitbot/core/logger"
	"abitbot/internal/catalog"
	"log/slog"
)

const fetchTimeout = 30 * time.Second

// maxBodyBytes caps how much of a page is read when hashing, so a
// misbehaving site cannot exhaust memory.
const maxBodyBytes = 4 << 20

// Catalog lists the supported programs.
type Catalog interface {
	All(ctx context.Context) ([]catalog.Program, error)
}

// SnapshotStore persists fetch results.
type SnapshotStore interface {
	Insert(ctx context.Context, snap Snapshot) error
}

// Scraper schedules and performs the website snapshot runs.
type Scraper struct {
	catalog  Catalog
	store    SnapshotStore
	client   *http.Client
	schedule string
	cron     *cron.Cron
}

// New builds a scraper with the given cron schedule.
func New(cat Catalog, store SnapshotStore, client *http.Client, schedule string) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Scraper{
		catalog:  cat,
		store:    store,
		client:   client,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the cron entry and launches the scheduler.
func (s *Scraper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Info(ctx, "scraper", "scheduler.started",
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scraper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info(context.Background(), "scraper", "scheduler.stopped")
}

// RunOnce fetches every program website and stores one snapshot per program.
// A failed fetch is recorded with a zero status so gaps are visible too.
func (s *Scraper) RunOnce(ctx context.Context) {
	start := time.Now()

	programs, err := s.catalog.All(ctx)
	if err != nil {
		logger.Error(ctx, "scraper", "run.failed", slog.String("err", err.Error()))
		return
	}

	stored := 0
	for _, p := range programs {
		snap := s.fetch(ctx, p)
		if err := s.store.Insert(ctx, snap); err != nil {
			logger.Error(ctx, "scraper", "snapshot.store_failed",
				slog.String("program_id", p.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		stored++
	}

	logger.Info(ctx, "scraper", "run.finished",
		slog.Int("programs", len(programs)),
		slog.Int("stored", stored),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

func (s *Scraper) fetch(ctx context.Context, p catalog.Program) Snapshot {
	snap := Snapshot{ProgramID: p.ID, FetchedAt: time.Now().UTC()}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.WebsiteURL, nil)
	if err != nil {
		logger.Error(ctx, "scraper", "fetch.failed",
			slog.String("program_id", p.ID),
			slog.String("err", err.Error()),
		)
		return snap
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error(ctx, "scraper", "fetch.failed",
			slog.String("program_id", p.ID),
			slog.String("err", err.Error()),
		)
		return snap
	}
	defer resp.Body.Close()

	snap.StatusCode = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		logger.Error(ctx, "scraper", "fetch.read_failed",
			slog.String("program_id", p.ID),
			slog.String("err", err.Error()),
		)
		return snap
	}

	snap.ContentLength = len(body)
	snap.ContentHash = hashBody(body)
	return snap
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
