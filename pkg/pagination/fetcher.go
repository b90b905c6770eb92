package pagination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/DoYourThink/memos-sync/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Errors returned by the fetcher.
var (
	// ErrInvalidLimit is returned when the requested memo count is not positive.
	ErrInvalidLimit = errors.New("memo limit must be positive")

	// ErrPaginationStuck is returned when the page budget is exhausted while
	// the server keeps returning continuation cursors.
	ErrPaginationStuck = errors.New("pagination exceeded its page budget")
)

// Lister fetches a single page of memos. *client.Client satisfies it.
type Lister interface {
	ListMemos(ctx context.Context, params client.ListMemosParams) (*client.MemoPage, error)
}

// Config holds fetcher configuration.
type Config struct {
	// MaxPageSize caps the per-request page size. The Memos server clamps
	// larger values anyway.
	MaxPageSize int

	// MaxPages is a hard cap on list requests per FetchAll call. Zero
	// derives the cap from the memo limit, which is the loosest bound a
	// well-behaved server can need.
	MaxPages int
}

// DefaultConfig returns safe defaults for a Memos server.
func DefaultConfig() Config {
	return Config{
		MaxPageSize: 100,
	}
}

// Fetcher aggregates memo pages into a single capped, ordered listing.
type Fetcher struct {
	lister Lister
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a new fetcher.
func NewFetcher(lister Lister, config Config) *Fetcher {
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}

	return &Fetcher{
		lister: lister,
		config: config,
		logger: log.With().Str("component", "memos-fetcher").Logger(),
	}
}

// FetchAll retrieves up to maxCount memos in NORMAL state, following
// continuation cursors until the cap or the end of the listing is reached.
// Pages are fetched strictly one at a time. The result is sorted by
// creation time, newest first.
//
// The listing ends early when a page comes back empty or without a cursor,
// regardless of remaining budget. A list error aborts the whole fetch; no
// partial result is returned.
func (f *Fetcher) FetchAll(ctx context.Context, maxCount int) ([]client.Memo, error) {
	if maxCount <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidLimit, maxCount)
	}

	startTime := time.Now()

	pageSize := maxCount
	if pageSize > f.config.MaxPageSize {
		pageSize = f.config.MaxPageSize
	}

	// Every continued iteration appends at least one memo, so a healthy
	// listing never needs more than maxCount pages.
	maxPages := f.config.MaxPages
	if maxPages <= 0 {
		maxPages = maxCount
	}

	memos := make([]client.Memo, 0, pageSize)
	pageToken := ""

	for page := 1; ; page++ {
		if page > maxPages {
			f.logger.Error().
				Int("pages", page-1).
				Int("fetched", len(memos)).
				Msg("Cursor chain exceeded page budget")
			return nil, fmt.Errorf("%w after %d pages", ErrPaginationStuck, page-1)
		}

		result, err := f.lister.ListMemos(ctx, client.ListMemosParams{
			State:     client.StateNormal,
			PageSize:  pageSize,
			PageToken: pageToken,
		})
		if err != nil {
			f.logger.Error().Err(err).
				Int("page", page).
				Int("fetched", len(memos)).
				Msg("Page fetch failed")
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		// An empty page ends the listing even when a cursor came back.
		if len(result.Memos) == 0 {
			break
		}

		remaining := maxCount - len(memos)
		if len(result.Memos) > remaining {
			memos = append(memos, result.Memos[:remaining]...)
		} else {
			memos = append(memos, result.Memos...)
		}

		f.logger.Debug().
			Int("page", page).
			Int("page_items", len(result.Memos)).
			Int("fetched", len(memos)).
			Bool("has_next_page", result.NextPageToken != "").
			Msg("Page appended")

		if len(memos) >= maxCount {
			break
		}
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	// Newest first; equal timestamps keep fetch order.
	sort.SliceStable(memos, func(i, j int) bool {
		return memos[i].CreateTime.After(memos[j].CreateTime)
	})

	f.logger.Info().
		Int("fetched", len(memos)).
		Int("limit", maxCount).
		Dur("duration", time.Since(startTime)).
		Msg("Memo fetch complete")

	return memos, nil
}
