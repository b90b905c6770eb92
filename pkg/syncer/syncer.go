// Package syncer turns fetched memos into Markdown files on disk. Each
// run fetches a capped listing, downloads attachments best-effort, and
// writes one file per memo.
package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DoYourThink/memos-sync/pkg/client"
)

// Prometheus metrics for sync runs.
var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memos_sync_runs_total",
		Help: "Total sync runs by result",
	}, []string{"result"})

	syncMemosWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memos_sync_memos_written_total",
		Help: "Total memo files written across all runs",
	})

	syncRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memos_sync_run_duration_seconds",
		Help:    "Duration of one sync run in seconds",
		Buckets: []float64{0.5, 1, 5, 15, 60, 300},
	})
)

// MemoFetcher retrieves the capped, ordered memo listing.
type MemoFetcher interface {
	FetchAll(ctx context.Context, maxCount int) ([]client.Memo, error)
}

// AttachmentDownloader fetches one attachment, returning nil when it is
// unavailable.
type AttachmentDownloader interface {
	Download(ctx context.Context, att client.Attachment) []byte
}

// Store persists one file below its root and returns the path written.
type Store interface {
	Write(relPath string, data []byte) (string, error)
	Root() string
}

// Stats summarizes one sync run.
type Stats struct {
	RunID             string
	Fetched           int
	Written           int
	AttachmentsSaved  int
	AttachmentsFailed int
	Duration          time.Duration
}

// Config holds the syncer configuration.
type Config struct {
	// Limit caps how many memos one run fetches.
	Limit int
}

// Syncer drives one fetch-and-write cycle.
type Syncer struct {
	fetcher     MemoFetcher
	downloader  AttachmentDownloader
	memos       Store
	attachments Store
	config      Config
	logger      zerolog.Logger
}

// New creates a syncer writing memo files into memos and attachment files
// into attachments.
func New(fetcher MemoFetcher, downloader AttachmentDownloader, memos, attachments Store, config Config) *Syncer {
	return &Syncer{
		fetcher:     fetcher,
		downloader:  downloader,
		memos:       memos,
		attachments: attachments,
		config:      config,
		logger:      log.With().Str("component", "syncer").Logger(),
	}
}

// Run fetches up to the configured limit of memos and writes each one as a
// Markdown file. A list failure aborts the whole run. Attachment and
// per-file write failures are isolated: the run continues and the stats
// report them.
func (s *Syncer) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{RunID: uuid.NewString()}
	startTime := time.Now()

	logger := s.logger.With().Str("run_id", stats.RunID).Logger()
	logger.Info().Int("limit", s.config.Limit).Msg("Sync run started")

	memos, err := s.fetcher.FetchAll(ctx, s.config.Limit)
	if err != nil {
		syncRunsTotal.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Msg("Memo fetch failed")
		return nil, fmt.Errorf("fetch memos: %w", err)
	}
	stats.Fetched = len(memos)

	for _, memo := range memos {
		refs := s.saveAttachments(ctx, logger, memo, stats)

		doc, err := Render(memo, refs)
		if err != nil {
			logger.Warn().Err(err).Str("memo", memo.Name).Msg("Memo render failed")
			continue
		}

		if _, err := s.memos.Write(FileName(memo), doc); err != nil {
			logger.Warn().Err(err).Str("memo", memo.Name).Msg("Memo write failed")
			continue
		}
		stats.Written++
		syncMemosWritten.Inc()
	}

	stats.Duration = time.Since(startTime)
	syncRunsTotal.WithLabelValues("ok").Inc()
	syncRunDuration.Observe(stats.Duration.Seconds())

	logger.Info().
		Int("fetched", stats.Fetched).
		Int("written", stats.Written).
		Int("attachments_saved", stats.AttachmentsSaved).
		Int("attachments_failed", stats.AttachmentsFailed).
		Dur("duration", stats.Duration).
		Msg("Sync run complete")

	return stats, nil
}

// saveAttachments downloads and stores every attachment of one memo,
// best-effort, and returns the refs for rendering.
func (s *Syncer) saveAttachments(ctx context.Context, logger zerolog.Logger, memo client.Memo, stats *Stats) []AttachmentRef {
	if len(memo.Attachments) == 0 {
		return nil
	}

	refs := make([]AttachmentRef, 0, len(memo.Attachments))
	for _, att := range memo.Attachments {
		ref := AttachmentRef{Filename: att.Filename, Type: att.Type}

		data := s.downloader.Download(ctx, att)
		if data == nil {
			stats.AttachmentsFailed++
			refs = append(refs, ref)
			continue
		}

		path, err := s.attachments.Write(attachmentFileName(att), data)
		if err != nil {
			stats.AttachmentsFailed++
			logger.Warn().Err(err).
				Str("memo", memo.Name).
				Str("attachment", att.Name).
				Msg("Attachment write failed")
			refs = append(refs, ref)
			continue
		}

		stats.AttachmentsSaved++
		ref.LocalPath = relativeTo(s.memos.Root(), path)
		refs = append(refs, ref)
	}

	return refs
}

// attachmentFileName prefixes the attachment id so two memos can attach
// files with the same name.
func attachmentFileName(att client.Attachment) string {
	id := att.Name
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	if id == "" {
		return att.Filename
	}
	return id + "-" + att.Filename
}

// relativeTo links target from the base directory when possible, falling
// back to the path as written.
func relativeTo(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
