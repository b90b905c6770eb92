// Package pagination provides serial cursor fetching for the Memos list API.
//
// The Memos server pages its listing with an opaque nextPageToken cursor.
// This package walks that cursor chain one page at a time, stops at a
// caller-supplied memo cap, and returns the collected memos ordered by
// creation time, newest first.
//
// Example usage:
//
//	config := pagination.DefaultConfig()
//	fetcher := pagination.NewFetcher(memosClient, config)
//	memos, err := fetcher.FetchAll(ctx, 500)
//
// The fetcher:
//   - Requests a constant page size of min(MaxPageSize, cap)
//   - Follows cursors until the cap, an empty page, or a missing cursor
//   - Truncates the final page so the cap is never exceeded
//   - Caps total requests so a cursor loop cannot run unbounded
//   - Fails the whole fetch on any list error (no partial results)
package pagination
