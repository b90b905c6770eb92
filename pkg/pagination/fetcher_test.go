package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DoYourThink/memos-sync/pkg/client"
)

// scriptedLister plays back a fixed sequence of pages and records every
// request it sees.
type scriptedLister struct {
	pages []client.MemoPage
	errAt int // 1-based call index that fails, 0 = never
	err   error
	calls []client.ListMemosParams
}

func (s *scriptedLister) ListMemos(ctx context.Context, params client.ListMemosParams) (*client.MemoPage, error) {
	s.calls = append(s.calls, params)
	call := len(s.calls)

	if s.errAt > 0 && call == s.errAt {
		return nil, s.err
	}
	if call > len(s.pages) {
		return &client.MemoPage{}, nil
	}

	page := s.pages[call-1]
	return &page, nil
}

// makeMemos builds count memos whose creation times decrease with the
// running index, so lower indexes are newer.
func makeMemos(start, count int, base time.Time) []client.Memo {
	memos := make([]client.Memo, count)
	for i := 0; i < count; i++ {
		n := start + i
		memos[i] = client.Memo{
			Name:       fmt.Sprintf("memos/%d", n),
			UID:        fmt.Sprintf("uid-%d", n),
			Content:    fmt.Sprintf("note %d", n),
			CreateTime: base.Add(-time.Duration(n) * time.Minute),
		}
	}
	return memos
}

func TestFetchAll_CapAcrossPages(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Server hands out pages of 60, 60, and 5 items
	lister := &scriptedLister{
		pages: []client.MemoPage{
			{Memos: makeMemos(0, 60, base), NextPageToken: "cursor-2"},
			{Memos: makeMemos(60, 60, base), NextPageToken: "cursor-3"},
			{Memos: makeMemos(120, 5, base)},
		},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	if len(memos) != 100 {
		t.Errorf("len(memos) = %d, want 100", len(memos))
	}
	if len(lister.calls) != 2 {
		t.Errorf("list calls = %d, want 2 (cap reached mid-page)", len(lister.calls))
	}

	// Constant page size, derived once from the cap
	for i, call := range lister.calls {
		if call.PageSize != 100 {
			t.Errorf("call %d PageSize = %d, want 100", i+1, call.PageSize)
		}
		if call.State != client.StateNormal {
			t.Errorf("call %d State = %q, want %q", i+1, call.State, client.StateNormal)
		}
	}
	if lister.calls[0].PageToken != "" {
		t.Errorf("first call PageToken = %q, want empty", lister.calls[0].PageToken)
	}
	if lister.calls[1].PageToken != "cursor-2" {
		t.Errorf("second call PageToken = %q, want cursor-2", lister.calls[1].PageToken)
	}
}

func TestFetchAll_FewerThanCap(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	lister := &scriptedLister{
		pages: []client.MemoPage{
			{Memos: makeMemos(0, 10, base)}, // no cursor
		},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 50)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	if len(memos) != 10 {
		t.Errorf("len(memos) = %d, want 10", len(memos))
	}
	if len(lister.calls) != 1 {
		t.Errorf("list calls = %d, want 1", len(lister.calls))
	}
	if lister.calls[0].PageSize != 50 {
		t.Errorf("PageSize = %d, want 50 (cap below max page size)", lister.calls[0].PageSize)
	}
}

func TestFetchAll_EmptyFirstPage(t *testing.T) {
	lister := &scriptedLister{
		pages: []client.MemoPage{{}},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	if len(memos) != 0 {
		t.Errorf("len(memos) = %d, want 0", len(memos))
	}
	if len(lister.calls) != 1 {
		t.Errorf("list calls = %d, want 1", len(lister.calls))
	}
}

func TestFetchAll_EmptyPageStopsDespiteCursor(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	lister := &scriptedLister{
		pages: []client.MemoPage{
			{Memos: makeMemos(0, 5, base), NextPageToken: "cursor-2"},
			{NextPageToken: "cursor-3"}, // empty page still carries a cursor
		},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	if len(memos) != 5 {
		t.Errorf("len(memos) = %d, want 5", len(memos))
	}
	if len(lister.calls) != 2 {
		t.Errorf("list calls = %d, want 2 (empty page ends the listing)", len(lister.calls))
	}
}

func TestFetchAll_MissingCursorStops(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	lister := &scriptedLister{
		pages: []client.MemoPage{
			{Memos: makeMemos(0, 5, base)}, // budget left, but no cursor
		},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	if len(memos) != 5 {
		t.Errorf("len(memos) = %d, want 5", len(memos))
	}
	if len(lister.calls) != 1 {
		t.Errorf("list calls = %d, want 1", len(lister.calls))
	}
}

func TestFetchAll_SortedNewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Pages arrive out of creation order
	lister := &scriptedLister{
		pages: []client.MemoPage{
			{
				Memos: []client.Memo{
					{Name: "memos/2", CreateTime: base.Add(-2 * time.Hour)},
					{Name: "memos/9", CreateTime: base.Add(-9 * time.Hour)},
				},
				NextPageToken: "cursor-2",
			},
			{
				Memos: []client.Memo{
					{Name: "memos/1", CreateTime: base.Add(-1 * time.Hour)},
					{Name: "memos/5", CreateTime: base.Add(-5 * time.Hour)},
				},
			},
		},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	wantOrder := []string{"memos/1", "memos/2", "memos/5", "memos/9"}
	if len(memos) != len(wantOrder) {
		t.Fatalf("len(memos) = %d, want %d", len(memos), len(wantOrder))
	}
	for i, want := range wantOrder {
		if memos[i].Name != want {
			t.Errorf("memos[%d].Name = %q, want %q", i, memos[i].Name, want)
		}
	}
}

func TestFetchAll_SortIsStable(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	lister := &scriptedLister{
		pages: []client.MemoPage{
			{
				Memos: []client.Memo{
					{Name: "memos/a", CreateTime: base},
					{Name: "memos/b", CreateTime: base}, // same timestamp
					{Name: "memos/c", CreateTime: base.Add(time.Hour)},
				},
			},
		},
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}

	wantOrder := []string{"memos/c", "memos/a", "memos/b"}
	for i, want := range wantOrder {
		if memos[i].Name != want {
			t.Errorf("memos[%d].Name = %q, want %q (ties keep fetch order)", i, memos[i].Name, want)
		}
	}
}

func TestFetchAll_InvalidLimit(t *testing.T) {
	tests := []struct {
		name     string
		maxCount int
	}{
		{name: "zero", maxCount: 0},
		{name: "negative", maxCount: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &scriptedLister{}
			fetcher := NewFetcher(lister, DefaultConfig())

			_, err := fetcher.FetchAll(context.Background(), tt.maxCount)
			if !errors.Is(err, ErrInvalidLimit) {
				t.Errorf("Expected ErrInvalidLimit, got %v", err)
			}
			if len(lister.calls) != 0 {
				t.Errorf("list calls = %d, want 0", len(lister.calls))
			}
		})
	}
}

func TestFetchAll_ListErrorAborts(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	apiErr := &client.APIError{
		StatusCode: 500,
		ErrorClass: client.ErrorClassServer,
		Endpoint:   "/memos",
	}
	lister := &scriptedLister{
		pages: []client.MemoPage{
			{Memos: makeMemos(0, 60, base), NextPageToken: "cursor-2"},
		},
		errAt: 2,
		err:   apiErr,
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 100)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if memos != nil {
		t.Errorf("Expected nil memos on failure, got %d", len(memos))
	}

	// The client error stays reachable through the wrap
	var gotAPIErr *client.APIError
	if !errors.As(err, &gotAPIErr) {
		t.Fatalf("Expected *client.APIError through wrap, got %v", err)
	}
	if gotAPIErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", gotAPIErr.StatusCode)
	}
}

func TestFetchAll_MalformedResponseAborts(t *testing.T) {
	lister := &scriptedLister{
		errAt: 1,
		err:   fmt.Errorf("%w: missing memos field", client.ErrMalformedResponse),
	}

	fetcher := NewFetcher(lister, DefaultConfig())

	_, err := fetcher.FetchAll(context.Background(), 10)
	if !errors.Is(err, client.ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse through wrap, got %v", err)
	}
}

// loopingLister simulates a server that never stops handing out cursors.
type loopingLister struct {
	calls int
}

func (l *loopingLister) ListMemos(ctx context.Context, params client.ListMemosParams) (*client.MemoPage, error) {
	l.calls++
	return &client.MemoPage{
		Memos: []client.Memo{
			{Name: "memos/1", Content: "same memo again", CreateTime: time.Now()},
		},
		NextPageToken: "again",
	}, nil
}

func TestFetchAll_PageBudgetGuard(t *testing.T) {
	lister := &loopingLister{}

	fetcher := NewFetcher(lister, Config{MaxPageSize: 100, MaxPages: 3})

	_, err := fetcher.FetchAll(context.Background(), 100)
	if !errors.Is(err, ErrPaginationStuck) {
		t.Fatalf("Expected ErrPaginationStuck, got %v", err)
	}
	if lister.calls != 3 {
		t.Errorf("list calls = %d, want 3 (budget)", lister.calls)
	}
}

func TestFetchAll_DefaultPageBudgetCoversSlowListing(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// One memo per page: the worst case a well-behaved server can produce
	pages := make([]client.MemoPage, 10)
	for i := 0; i < 10; i++ {
		pages[i] = client.MemoPage{Memos: makeMemos(i, 1, base)}
		if i < 9 {
			pages[i].NextPageToken = fmt.Sprintf("cursor-%d", i+2)
		}
	}
	lister := &scriptedLister{pages: pages}

	fetcher := NewFetcher(lister, DefaultConfig())

	memos, err := fetcher.FetchAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	if len(memos) != 10 {
		t.Errorf("len(memos) = %d, want 10", len(memos))
	}
	if len(lister.calls) != 10 {
		t.Errorf("list calls = %d, want 10", len(lister.calls))
	}
}

func TestNewFetcher_NormalizesConfig(t *testing.T) {
	lister := &scriptedLister{pages: []client.MemoPage{{}}}

	fetcher := NewFetcher(lister, Config{})

	// Zero MaxPageSize falls back to the default
	_, err := fetcher.FetchAll(context.Background(), 500)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	if lister.calls[0].PageSize != 100 {
		t.Errorf("PageSize = %d, want 100 after normalization", lister.calls[0].PageSize)
	}
}
