package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrExtraction wraps any failure from the extraction capability: network
// error, unsupported URL, or no matching format. No retry is performed.
var ErrExtraction = errors.New("extraction failed")

// Output template passed to yt-dlp, relative to the working directory
const OutputTemplate = "%(title)s.%(ext)s"

// Kind selects which stream family to extract
type Kind string

const (
	// KindVideo extracts the best available stream muxed into mp4
	KindVideo Kind = "video"

	// KindAudio extracts the best audio-only stream remuxed into m4a
	KindAudio Kind = "audio"
)

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Format returns the yt-dlp format selector and target container for the kind
func (k Kind) Format() (selector, container string) {
	if k == KindAudio {
		return "bestaudio[ext=m4a]", "m4a"
	}
	return "best[ext=mp4]", "mp4"
}

// Extractor is the external extraction capability: given a URL, a format
// selector and an output template, it downloads the artifact and returns
// its local path.
type Extractor interface {
	Extract(ctx context.Context, url, formatSelector, container, outputTemplate string) (string, error)
}

// YTDLPExtractor implements Extractor on top of yt-dlp.
type YTDLPExtractor struct{}

// Extract runs yt-dlp for a single item (playlists are never expanded).
func (YTDLPExtractor) Extract(ctx context.Context, url, formatSelector, container, outputTemplate string) (string, error) {
	dl := ytdlp.New().
		Format(formatSelector).
		MergeOutputFormat(container).
		NoPlaylist().
		Quiet().
		NoWarnings().
		RestrictFilenames().
		ForceOverwrites().
		Output(outputTemplate)

	result, err := dl.Run(ctx, url)
	if err != nil {
		return "", err
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		return "", err
	}
	if len(info) == 0 || info[0].Filename == nil || *info[0].Filename == "" {
		return "", errors.New("yt-dlp reported no output file")
	}

	path := *info[0].Filename
	// yt-dlp reports the pre-merge name when it remuxes containers
	if ext := "." + container; !strings.HasSuffix(path, ext) {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}
	return path, nil
}

// Runner invokes the extraction capability behind one global counting
// limiter shared across all users and both kinds. Acquisition blocks until
// a slot frees up or the context is cancelled.
type Runner struct {
	extractor   Extractor
	slots       *semaphore.Weighted
	downloadDir string
	log         *zap.Logger
}

// NewRunner creates a runner with maxConcurrent global extraction slots.
func NewRunner(extractor Extractor, maxConcurrent int64, downloadDir string, log *zap.Logger) *Runner {
	return &Runner{
		extractor:   extractor,
		slots:       semaphore.NewWeighted(maxConcurrent),
		downloadDir: downloadDir,
		log:         log,
	}
}

// Extract downloads the artifact for url in the given kind and returns its
// local path. Any capability failure comes back wrapped in ErrExtraction
// with the underlying cause preserved in the message.
func (r *Runner) Extract(ctx context.Context, url string, kind Kind) (string, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer r.slots.Release(1)

	selector, container := kind.Format()
	template := filepath.Join(r.downloadDir, OutputTemplate)

	r.log.Debug("extraction started",
		zap.String("url", url),
		zap.String("kind", kind.String()),
		zap.String("format", selector))

	path, err := r.extractor.Extract(ctx, url, selector, container, template)
	if err != nil {
		return "", fmt.Errorf("%w (%s): %v", ErrExtraction, kind, err)
	}

	r.log.Info("extraction finished",
		zap.String("kind", kind.String()),
		zap.String("path", filepath.Base(path)))
	return path, nil
}
