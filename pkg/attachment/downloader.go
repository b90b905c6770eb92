// Package attachment downloads memo attachment files on a best-effort
// basis. A failed download is logged and counted, never propagated, so a
// single broken file cannot abort a sync run.
package attachment

import (
	"context"
	"net/url"
	"strings"

	"github.com/DoYourThink/memos-sync/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var attachmentDownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "memos_attachment_downloads_total",
	Help: "Total attachment downloads by result",
}, []string{"result"})

// FileFetcher performs an authenticated GET for a raw file.
// *client.Client satisfies it.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileURL string) ([]byte, error)
}

// Downloader resolves and fetches attachment files for memos.
type Downloader struct {
	fileBase string
	fetcher  FileFetcher
	logger   zerolog.Logger
}

// NewDownloader creates a downloader that resolves files relative to the
// given API URL. Attachment files are served from the server origin, not
// the API tree, so the /api/v1 suffix is stripped once here.
func NewDownloader(apiURL string, fetcher FileFetcher) *Downloader {
	base := strings.TrimRight(apiURL, "/")
	base = strings.TrimSuffix(base, "/api/v1")

	return &Downloader{
		fileBase: base,
		fetcher:  fetcher,
		logger:   log.With().Str("component", "attachment-downloader").Logger(),
	}
}

// Download fetches one attachment and returns its bytes. On any failure it
// logs the cause, counts it, and returns nil. Callers treat nil as
// "attachment unavailable".
func (d *Downloader) Download(ctx context.Context, att client.Attachment) []byte {
	fileURL := d.FileURL(att)
	if fileURL == "" {
		d.logger.Warn().
			Str("attachment", att.Name).
			Str("filename", att.Filename).
			Msg("Attachment has no usable file URL")
		attachmentDownloadsTotal.WithLabelValues("failed").Inc()
		return nil
	}

	data, err := d.fetcher.FetchFile(ctx, fileURL)
	if err != nil {
		d.logger.Warn().Err(err).
			Str("attachment", att.Name).
			Str("url", fileURL).
			Msg("Attachment download failed")
		attachmentDownloadsTotal.WithLabelValues("failed").Inc()
		return nil
	}
	if len(data) == 0 {
		d.logger.Warn().
			Str("attachment", att.Name).
			Str("url", fileURL).
			Msg("Attachment download returned no data")
		attachmentDownloadsTotal.WithLabelValues("failed").Inc()
		return nil
	}

	d.logger.Debug().
		Str("attachment", att.Name).
		Int("bytes", len(data)).
		Msg("Attachment downloaded")
	attachmentDownloadsTotal.WithLabelValues("ok").Inc()

	return data
}

// FileURL builds the raw file URL for an attachment, or "" when the
// attachment carries no id or filename. The id is the final path segment
// of the attachment resource name.
func (d *Downloader) FileURL(att client.Attachment) string {
	id := att.Name
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	if id == "" || att.Filename == "" {
		return ""
	}

	return d.fileBase + "/file/attachments/" + id + "/" + url.PathEscape(att.Filename)
}
