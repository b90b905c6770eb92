// Package metrics provides the centralized Prometheus metrics registry for
// the memos sync client. All metrics are defined in their respective packages
// (client, attachment, syncer) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the sync client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - memos_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - memos_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - memos_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Attachment Metrics (pkg/attachment):
//   - memos_attachment_downloads_total{result} (Counter): Download attempts by result (ok, failed)
//
// Sync Run Metrics (pkg/syncer):
//   - memos_sync_runs_total{result} (Counter): Sync runs by result (ok, failed)
//   - memos_sync_memos_written_total (Counter): Memo files written across all runs
//   - memos_sync_run_duration_seconds (Histogram): Duration of one sync run
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(memos_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(memos_request_duration_seconds_bucket[5m]))
//
//   # Attachment Failure Rate
//   rate(memos_attachment_downloads_total{result="failed"}[1h]) /
//   rate(memos_attachment_downloads_total[1h])
//
//   # Failed Sync Runs
//   increase(memos_sync_runs_total{result="failed"}[1d])
