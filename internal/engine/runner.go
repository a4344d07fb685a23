// Package engine runs the chart pipeline: make sure the survey export is
// available locally, load it, build every selected question and render one
// chart per question.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/surveygraph/graph/internal/config"
	"github.com/surveygraph/graph/internal/fetch"
	"github.com/surveygraph/graph/internal/render"
	"github.com/surveygraph/graph/internal/survey"
	"github.com/surveygraph/graph/internal/table"
)

// Result is the outcome of a successful run.
type Result struct {
	ChartType  string        `json:"chart_type" yaml:"chart_type"`
	OutputDir  string        `json:"output_dir" yaml:"output_dir"`
	DataFile   string        `json:"data_file" yaml:"data_file"`
	Downloaded bool          `json:"downloaded" yaml:"downloaded"`
	Charts     []ChartResult `json:"charts" yaml:"charts"`
	StartTime  time.Time     `json:"start_time" yaml:"start_time"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// ChartResult describes one written chart.
type ChartResult struct {
	Slug  string `json:"slug" yaml:"slug"`
	Title string `json:"title" yaml:"title"`
	Path  string `json:"path" yaml:"path"`
	// Answers is the number of distinct answers drawn.
	Answers int `json:"answers" yaml:"answers"`
	// Responses is the number of rows the shares are relative to.
	Responses int `json:"responses" yaml:"responses"`
}

// QuestionMetrics pairs a catalog entry with its computed distribution.
type QuestionMetrics struct {
	Slug    string          `json:"slug" yaml:"slug"`
	Title   string          `json:"title" yaml:"title"`
	Metrics *survey.Metrics `json:"metrics" yaml:"metrics"`
}

type builtQuestion struct {
	def      survey.Definition
	question *survey.Question
}

// Runner executes the pipeline for one configuration.
type Runner struct {
	cfg        *config.Config
	fetcher    *fetch.Fetcher
	renderer   *render.Renderer
	normalizer *survey.Normalizer
	listener   Listener

	progress chan Event
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithListener registers a progress listener.
func WithListener(l Listener) RunnerOption {
	return func(r *Runner) {
		r.listener = l
	}
}

// WithFetcher replaces the fetcher built from the configuration. Progress
// events for downloads are only emitted by the default fetcher.
func WithFetcher(f *fetch.Fetcher) RunnerOption {
	return func(r *Runner) {
		r.fetcher = f
	}
}

// WithRenderer replaces the default renderer.
func WithRenderer(rd *render.Renderer) RunnerOption {
	return func(r *Runner) {
		r.renderer = rd
	}
}

// WithNormalizer replaces the default answer normalizer.
func WithNormalizer(n *survey.Normalizer) RunnerOption {
	return func(r *Runner) {
		r.normalizer = n
	}
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		listener: &NoopListener{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.fetcher == nil {
		r.fetcher = fetch.New(
			fetch.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			fetch.WithRetryConfig(cfg.Retry),
			fetch.WithDownloadHook(r.onDownload),
			fetch.WithRetryHook(r.onRetry),
		)
	}
	if r.renderer == nil {
		r.renderer = render.NewRenderer()
	}
	if r.normalizer == nil {
		r.normalizer = survey.DefaultNormalizer()
	}

	return r
}

// Run fetches the export, builds every selected question and writes one chart
// per question to the output directory. No chart is written unless every
// question could be built.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	defs, err := survey.Select(r.cfg.Questions)
	if err != nil {
		return nil, err
	}

	stop := r.listen()
	defer stop()

	downloaded, tbl, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	questions, err := r.build(tbl, defs)
	if err != nil {
		return nil, err
	}

	charts, err := r.render(ctx, questions)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ChartType:  r.cfg.ChartType.String(),
		OutputDir:  r.cfg.OutputDir,
		DataFile:   r.cfg.DataFile,
		Downloaded: downloaded,
		Charts:     charts,
		StartTime:  start,
		Duration:   time.Since(start),
	}

	r.emit(Event{
		Type:  EventRunCompleted,
		Path:  r.cfg.OutputDir,
		Total: len(charts),
	})

	log.Info().
		Int("charts", len(charts)).
		Str("output_dir", r.cfg.OutputDir).
		Dur("duration", result.Duration).
		Msg("Run completed")

	return result, nil
}

// Metrics fetches the export and returns the distribution of every selected
// question without rendering anything.
func (r *Runner) Metrics(ctx context.Context) ([]QuestionMetrics, error) {
	defs, err := survey.Select(r.cfg.Questions)
	if err != nil {
		return nil, err
	}

	stop := r.listen()
	defer stop()

	_, tbl, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	questions, err := r.build(tbl, defs)
	if err != nil {
		return nil, err
	}

	out := make([]QuestionMetrics, 0, len(questions))
	for _, bq := range questions {
		out = append(out, QuestionMetrics{
			Slug:    bq.def.Slug,
			Title:   bq.question.Title(),
			Metrics: bq.question.Metrics(),
		})
	}
	return out, nil
}

func (r *Runner) load(ctx context.Context) (bool, *table.Table, error) {
	downloaded, err := r.fetcher.EnsureLocal(ctx, r.cfg.SourceURL, r.cfg.DataFile)
	if err != nil {
		return false, nil, err
	}

	r.emit(Event{
		Type:       EventFetchCompleted,
		URL:        r.cfg.SourceURL,
		Path:       r.cfg.DataFile,
		Downloaded: downloaded,
	})

	tbl, err := table.Load(r.cfg.DataFile)
	if err != nil {
		return false, nil, err
	}

	log.Debug().
		Str("path", r.cfg.DataFile).
		Int("rows", tbl.Len()).
		Int("columns", tbl.Width()).
		Msg("Loaded responses")

	return downloaded, tbl, nil
}

func (r *Runner) build(tbl *table.Table, defs []survey.Definition) ([]builtQuestion, error) {
	questions := make([]builtQuestion, 0, len(defs))
	for _, def := range defs {
		q, err := def.Build(tbl, r.normalizer)
		if err != nil {
			return nil, err
		}
		questions = append(questions, builtQuestion{def: def, question: q})
	}
	return questions, nil
}

func (r *Runner) render(ctx context.Context, questions []builtQuestion) ([]ChartResult, error) {
	charts := make([]ChartResult, len(questions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)

	for i, bq := range questions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			path, err := r.renderer.Render(r.cfg.ChartType, bq.question, bq.def.Slug, r.cfg.OutputDir)
			if err != nil {
				return fmt.Errorf("%s: %w", bq.def.Slug, err)
			}

			metrics := bq.question.Metrics()
			charts[i] = ChartResult{
				Slug:      bq.def.Slug,
				Title:     bq.question.Title(),
				Path:      path,
				Answers:   len(metrics.Rows),
				Responses: metrics.Total,
			}

			r.emit(Event{
				Type:     EventChartGenerated,
				Question: bq.def.Slug,
				Path:     path,
				Index:    i + 1,
				Total:    len(questions),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return charts, nil
}

func (r *Runner) onDownload(url, path string, attempt int) {
	r.emit(Event{
		Type:    EventFetchStarted,
		URL:     url,
		Path:    path,
		Attempt: attempt,
	})
}

func (r *Runner) onRetry(attempt int, delay time.Duration, err error) {
	r.emit(Event{
		Type:    EventFetchRetrying,
		URL:     r.cfg.SourceURL,
		Attempt: attempt,
		Delay:   delay,
		Error:   err.Error(),
	})
}

// listen starts the listener on a fresh channel and returns the function that
// closes it and waits for the listener to drain.
func (r *Runner) listen() func() {
	r.progress = make(chan Event, 64)
	done := make(chan struct{})

	go func(events <-chan Event) {
		defer close(done)
		r.listener.StartListening(events)
	}(r.progress)

	return func() {
		close(r.progress)
		<-done
		r.listener.StopListening()
		r.progress = nil
	}
}

func (r *Runner) emit(e Event) {
	if r.progress == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	r.progress <- e
}
