package ai

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
	"github.com/daily-reflections/core/internal/pkg/metrics"
	"github.com/daily-reflections/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TaskTypeEnrich is the ledger type of a pipeline run.
const TaskTypeEnrich = "ai:enrich"

// Pipeline stages reported in EnrichmentError.
const (
	StageThrottle = "throttle"
	StageGenerate = "generate"
	StageParse    = "parse"
	StageStore    = "store"
	StageImage    = "image"
)

const (
	defaultTimeout = 60 * time.Second
	writeTimeout   = 10 * time.Second
)

// EntryUpdater applies a partial update to an entry by id.
type EntryUpdater interface {
	UpdateEntry(ctx context.Context, id uint, patch models.EntryPatch) (*models.DiaryEntryModel, error)
}

// Tracker records pipeline runs for observation.
type Tracker interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}, groupKey string) (*taskqueue.Task, error)
	UpdateStatus(ctx context.Context, id string, status taskqueue.TaskStatus, result interface{}, errMsg string) error
}

type Options struct {
	Timeout           time.Duration
	RequestsPerMinute int
	ImageEndpoint     string
}

// Result is what a successful run wrote.
type Result struct {
	Analysis
	ImageURL string `json:"imageUrl"`
}

// Pipeline derives title, mood, emotions and an illustration for entries.
// Runs are best effort: failures are logged and the entry keeps whatever was
// last written. Concurrent runs for one entry are not coordinated; each
// update writes a complete analysis so the last write wins as a whole.
type Pipeline struct {
	gen     Generator
	entries EntryUpdater
	tracker Tracker
	logger  *zap.Logger

	limiter       *rate.Limiter
	timeout       time.Duration
	imageEndpoint string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPipeline wires the collaborators. gen may be nil, in which case Trigger
// is a no-op; tracker may be nil.
func NewPipeline(gen Generator, entries EntryUpdater, tracker Tracker, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
		burst = opts.RequestsPerMinute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		gen:           gen,
		entries:       entries,
		tracker:       tracker,
		logger:        logger.Named("enrichment"),
		limiter:       rate.NewLimiter(limit, burst),
		timeout:       opts.Timeout,
		imageEndpoint: opts.ImageEndpoint,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Enabled reports whether a text generator is configured.
func (p *Pipeline) Enabled() bool {
	return p.gen != nil
}

// Trigger starts a detached run for the entry and returns immediately.
func (p *Pipeline) Trigger(entryID uint, content string) {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.logger.Warn("pipeline stopped, skipping entry", zap.Uint("entry", entryID))
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		p.Run(p.ctx, entryID, content)
	}()
}

// Run executes the pipeline synchronously. It never returns an error: every
// failure is logged and recorded in the ledger.
func (p *Pipeline) Run(ctx context.Context, entryID uint, content string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("enrichment panicked", zap.Uint("entry", entryID), zap.Any("panic", r))
		}
	}()

	done := metrics.EnrichmentStarted()
	taskID := p.track(ctx, entryID)
	start := time.Now()

	result, err := p.enrich(ctx, entryID, content)
	if err != nil {
		var ee *apperr.EnrichmentError
		outcome := metrics.OutcomeFailed
		if errors.As(err, &ee) && ee.Stage == StageParse {
			outcome = metrics.OutcomeParseFailed
		}
		done(outcome)
		p.logger.Warn("enrichment abandoned", zap.Uint("entry", entryID), zap.Error(err))
		p.finish(taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	done(metrics.OutcomeSucceeded)
	p.logger.Info("entry enriched",
		zap.Uint("entry", entryID),
		zap.String("mood", result.Mood),
		zap.Duration("took", time.Since(start)),
	)
	p.finish(taskID, taskqueue.TaskCompleted, result, "")
}

func (p *Pipeline) enrich(ctx context.Context, entryID uint, content string) (*Result, error) {
	fail := func(stage string, err error) error {
		return &apperr.EnrichmentError{EntryID: entryID, Stage: stage, Err: err}
	}

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(genCtx); err != nil {
		return nil, fail(StageThrottle, err)
	}
	raw, err := p.gen.Generate(genCtx, entryAnalysisSystemPrompt, buildEntryAnalysisPrompt(content))
	if err != nil {
		return nil, fail(StageGenerate, err)
	}
	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, fail(StageParse, err)
	}

	emotions := models.StringArray(analysis.Emotions)
	if err := p.write(ctx, entryID, models.EntryPatch{
		Title:       &analysis.Title,
		Mood:        &analysis.Mood,
		Emotions:    &emotions,
		ImagePrompt: &analysis.ImagePrompt,
	}); err != nil {
		return nil, fail(StageStore, err)
	}

	imageURL := FallbackImageURL(p.imageEndpoint, analysis.Mood, analysis.Emotions)
	if err := p.write(ctx, entryID, models.EntryPatch{ImageURL: &imageURL}); err != nil {
		return nil, fail(StageImage, err)
	}

	return &Result{Analysis: *analysis, ImageURL: imageURL}, nil
}

func (p *Pipeline) write(ctx context.Context, entryID uint, patch models.EntryPatch) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := p.entries.UpdateEntry(ctx, entryID, patch)
	return err
}

func (p *Pipeline) track(ctx context.Context, entryID uint) string {
	if p.tracker == nil {
		return ""
	}
	task, err := p.tracker.Enqueue(ctx, TaskTypeEnrich, map[string]uint{"entryId": entryID}, GroupKey(entryID))
	if err != nil {
		p.logger.Debug("task ledger unavailable", zap.Error(err))
		return ""
	}
	if err := p.tracker.UpdateStatus(ctx, task.ID, taskqueue.TaskRunning, nil, ""); err != nil {
		p.logger.Debug("task ledger update failed", zap.Error(err))
	}
	return task.ID
}

func (p *Pipeline) finish(taskID string, status taskqueue.TaskStatus, result interface{}, errMsg string) {
	if p.tracker == nil || taskID == "" {
		return
	}
	// The run context may already be cancelled; the ledger write should still land.
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.tracker.UpdateStatus(ctx, taskID, status, result, errMsg); err != nil {
		p.logger.Debug("task ledger update failed", zap.Error(err))
	}
}

// GroupKey is the ledger group of an entry's runs.
func GroupKey(entryID uint) string {
	return strconv.FormatUint(uint64(entryID), 10)
}

// Shutdown refuses new runs and waits for in-flight ones. If ctx ends first
// the remaining runs are cancelled and ctx's error is returned.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// Wait blocks until all triggered runs have finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
