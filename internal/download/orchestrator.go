package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telegrab/telegrab/internal/access"
	"github.com/telegrab/telegrab/internal/extract"
	"github.com/telegrab/telegrab/internal/metrics"
	"github.com/telegrab/telegrab/internal/model"
	"github.com/telegrab/telegrab/internal/split"
)

// ErrUnsupportedSource marks a link outside the supported domain allow-list.
var ErrUnsupportedSource = errors.New("unsupported source domain")

// SupportedDomains is the link allow-list.
var SupportedDomains = []string{"youtube.com", "youtu.be", "instagram.com"}

// User-facing texts
const (
	msgBanned          = "🚫 You are banned from using this bot."
	msgUnsupported     = "❌ Only YouTube or Instagram links are supported."
	msgStarting        = "⏳ Downloading...\n1️⃣ Preparing the video..."
	msgAudioNext       = "2️⃣ Now preparing the audio..."
	captionVideo       = "🎬 Video ready!"
	captionAudio       = "🎵 Audio ready!"
	msgDeliveryTrouble = "🚫 Sending the file failed. Please try again later."
)

// SupportedSource reports whether the URL's host belongs to the allow-list.
func SupportedSource(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range SupportedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Job tracks one inbound link event through its states.
type Job struct {
	ID         string
	Requester  int64
	URL        string
	Status     model.JobStatus
	LastError  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Orchestrator composes gate, extraction, splitting and delivery for each
// inbound link event. Distinct events run concurrently; the only shared
// brake is the extraction runner's global slot pool.
type Orchestrator struct {
	state     StateKeeper
	extractor Extractor
	sender    Sender
	operator  int64
	ceiling   int64
	chunk     int64
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewOrchestrator wires the pipeline. metrics may be nil.
func NewOrchestrator(state StateKeeper, extractor Extractor, sender Sender, operator, ceiling, chunk int64, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		state:     state,
		extractor: extractor,
		sender:    sender,
		operator:  operator,
		ceiling:   ceiling,
		chunk:     chunk,
		metrics:   m,
		log:       log,
	}
}

// HandleLink drives one link event to a terminal state and returns the job.
// Refusals (ban, unsupported domain) are normal outcomes, not failures.
func (o *Orchestrator) HandleLink(ctx context.Context, requester int64, rawURL string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Requester: requester,
		URL:       rawURL,
		Status:    model.JobStatusReceived,
		StartedAt: time.Now(),
	}
	if o.metrics != nil {
		o.metrics.ActiveJobs.Inc()
	}
	defer func() {
		job.FinishedAt = time.Now()
		if o.metrics != nil {
			o.metrics.ActiveJobs.Dec()
		}
	}()

	if access.Decide(requester, access.ActionDownload, o.state.Snapshot()) != access.Allow {
		o.reply(ctx, job, msgBanned)
		o.setStatus(job, model.JobStatusDone)
		return job
	}

	// First observed gated action creates the user record; a reported
	// success must be durable, so a failed write fails the job.
	if err := o.state.AddUser(requester); err != nil {
		o.fail(ctx, job, extract.KindVideo, err)
		return job
	}

	if !SupportedSource(rawURL) {
		o.reply(ctx, job, msgUnsupported)
		o.setStatus(job, model.JobStatusDone)
		return job
	}
	o.setStatus(job, model.JobStatusGated)

	o.reply(ctx, job, msgStarting)
	o.notifyOperator(ctx, fmt.Sprintf("✅ New job:\n👤 ID: %d\n🔗 %s", requester, rawURL))

	if err := o.runPass(ctx, job, extract.KindVideo, model.JobStatusVideoExtracting, model.JobStatusVideoDelivering, captionVideo); err != nil {
		o.fail(ctx, job, extract.KindVideo, err)
		return job
	}

	o.reply(ctx, job, msgAudioNext)

	if err := o.runPass(ctx, job, extract.KindAudio, model.JobStatusAudioExtracting, model.JobStatusAudioDelivering, captionAudio); err != nil {
		o.fail(ctx, job, extract.KindAudio, err)
		return job
	}

	o.setStatus(job, model.JobStatusRecorded)
	o.setStatus(job, model.JobStatusDone)
	return job
}

// runPass performs one media pass: extract, deliver every unit, record.
func (o *Orchestrator) runPass(ctx context.Context, job *Job, kind extract.Kind, extracting, delivering model.JobStatus, caption string) error {
	o.setStatus(job, extracting)

	path, err := o.extractor.Extract(ctx, job.URL, kind)
	if err != nil {
		return err
	}

	o.setStatus(job, delivering)

	seq, err := split.Plan(path, o.ceiling, o.chunk)
	if err != nil {
		return err
	}
	defer seq.Close()

	for {
		unit, err := seq.Next()
		if errors.Is(err, split.ErrConsumed) {
			break
		}
		if err != nil {
			return err
		}

		if err := o.sender.SendDocument(ctx, job.Requester, unit.Path, caption); err != nil {
			// Failed transmission still cleans up the transient chunk
			if derr := unit.Discard(); derr != nil {
				o.log.Warn("chunk cleanup failed", zap.String("path", unit.Path), zap.Error(derr))
			}
			return fmt.Errorf("delivery of unit %d failed: %w", unit.Seq, err)
		}
		if o.metrics != nil {
			o.metrics.ChunksSent.Inc()
		}
		if err := unit.Discard(); err != nil {
			o.log.Warn("chunk cleanup failed", zap.String("path", unit.Path), zap.Error(err))
		}
	}

	if err := o.state.RecordDownload(job.Requester, filepath.Base(path)); err != nil {
		return err
	}
	if o.metrics != nil {
		o.metrics.DownloadsCompleted.WithLabelValues(kind.String()).Inc()
	}
	return nil
}

// fail surfaces a phase failure to the user, mirrors it to the operator
// with the full context, and terminates the job. Whatever the earlier
// phases delivered stands.
func (o *Orchestrator) fail(ctx context.Context, job *Job, kind extract.Kind, err error) {
	job.LastError = err.Error()
	o.setStatus(job, model.JobStatusFailed)
	if o.metrics != nil {
		o.metrics.DownloadsFailed.WithLabelValues(kind.String()).Inc()
	}

	o.reply(ctx, job, userFacing(err))
	o.notifyOperator(ctx, fmt.Sprintf("🚨 Job failed:\n👤 ID: %d\n🔗 %s\n❗ %v", job.Requester, job.URL, err))

	o.log.Error("job failed",
		zap.String("job", job.ID),
		zap.Int64("requester", job.Requester),
		zap.String("kind", kind.String()),
		zap.Error(err))
}

// userFacing keeps extraction causes (actionable, path-free) and hides
// everything else behind a generic line so internal paths never reach the
// ordinary user.
func userFacing(err error) string {
	if errors.Is(err, extract.ErrExtraction) {
		return fmt.Sprintf("🚫 %v", err)
	}
	return msgDeliveryTrouble
}

// reply sends a progress or refusal text to the requester. Losing one of
// these must not kill the job, so errors only get logged.
func (o *Orchestrator) reply(ctx context.Context, job *Job, text string) {
	if err := o.sender.SendText(ctx, job.Requester, text); err != nil {
		o.log.Warn("user notification failed",
			zap.String("job", job.ID),
			zap.Int64("requester", job.Requester),
			zap.Error(err))
	}
}

// notifyOperator mirrors job events to the operator, best-effort.
func (o *Orchestrator) notifyOperator(ctx context.Context, text string) {
	if o.operator == 0 {
		return
	}
	if err := o.sender.SendText(ctx, o.operator, text); err != nil {
		o.log.Warn("operator notification failed", zap.Error(err))
	}
}

func (o *Orchestrator) setStatus(job *Job, status model.JobStatus) {
	job.Status = status
	o.log.Debug("job transition",
		zap.String("job", job.ID),
		zap.String("status", status.String()))
}
