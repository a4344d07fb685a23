package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveygraph/graph/internal/config"
	"github.com/surveygraph/graph/internal/fetch"
	"github.com/surveygraph/graph/internal/render"
	"github.com/surveygraph/graph/internal/survey"
	_ "github.com/surveygraph/graph/internal/testhelper"
)

type recordingListener struct {
	mu      sync.Mutex
	events  []Event
	stopped bool
}

func (l *recordingListener) StartListening(events <-chan Event) {
	for e := range events {
		l.mu.Lock()
		l.events = append(l.events, e)
		l.mu.Unlock()
	}
}

func (l *recordingListener) StopListening() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

func (l *recordingListener) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *recordingListener) count(t EventType) int {
	n := 0
	for _, got := range l.types() {
		if got == t {
			n++
		}
	}
	return n
}

// exportCSV builds a survey export with one column per catalog question,
// skipping the slugs in omit.
func exportCSV(t *testing.T, omit ...string) []byte {
	t.Helper()

	skip := map[string]bool{}
	for _, s := range omit {
		skip[s] = true
	}

	answers := map[string][]string{
		"frequency": {"Sempre", "Às vezes", "Sempre", "Nunca"},
		"tools":     {"ChatGPT, Gemini", "chat gpt and Copilot", "Deepseek.", "Gemini e Claude"},
		"step":      {"Debug", "Lógica", "Debug", "Sintaxe"},
		"action":    {"Testo", "Copio", "Testo", "Testo"},
		"debugging": {"Sim", "Não", "Não", "Talvez"},
		"test":      {"Alta", "Média", "Baixa", "Média"},
		"learning":  {"Sim", "Sim", "Não", "Sim"},
		"opinion":   {"Permitido", "Proibido", "Permitido com regras", "Permitido com regras"},
		"professor": {"Não", "Não", "Sim", "Não"},
	}

	header := []string{"Carimbo de data/hora"}
	for _, def := range survey.Catalog {
		if !skip[def.Slug] {
			header = append(header, def.Title)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	for i := 0; i < 4; i++ {
		row := []string{"2025/05/10 10:00:00"}
		for _, def := range survey.Catalog {
			if !skip[def.Slug] {
				row = append(row, answers[def.Slug][i])
			}
		}
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

func testConfig(t *testing.T, ctype render.ChartType) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.SourceURL = "http://127.0.0.1:1/unused.csv"
	cfg.DataFile = filepath.Join(dir, "data.csv")
	cfg.OutputDir = filepath.Join(dir, "build")
	cfg.ChartType = ctype
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	return cfg
}

func writeCached(t *testing.T, cfg *config.Config, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.DataFile, data, 0o600))
}

func TestRun_CachedData(t *testing.T) {
	cfg := testConfig(t, render.ChartPie)
	writeCached(t, cfg, exportCSV(t))
	listener := &recordingListener{}

	result, err := NewRunner(cfg, WithListener(listener)).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Downloaded)
	assert.Equal(t, "pie", result.ChartType)
	require.Len(t, result.Charts, len(survey.Catalog))
	for i, def := range survey.Catalog {
		chart := result.Charts[i]
		assert.Equal(t, def.Slug, chart.Slug)
		assert.Equal(t, filepath.Join(cfg.OutputDir, def.Slug+".svg"), chart.Path)
		assert.FileExists(t, chart.Path)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, len(survey.Catalog))

	assert.True(t, listener.stopped)
	assert.Equal(t, 0, listener.count(EventFetchStarted))
	assert.Equal(t, 1, listener.count(EventFetchCompleted))
	assert.Equal(t, len(survey.Catalog), listener.count(EventChartGenerated))
	types := listener.types()
	assert.Equal(t, EventRunCompleted, types[len(types)-1])
}

func TestRun_ToolsChartUsesNormalizedAnswers(t *testing.T) {
	cfg := testConfig(t, render.ChartBar)
	cfg.Questions = []string{"tools"}
	writeCached(t, cfg, exportCSV(t))

	result, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Charts, 1)

	tools := result.Charts[0]
	assert.Equal(t, "tools", tools.Slug)
	// ChatGPT, Gemini, Copilot, DeepSeek, Claude
	assert.Equal(t, 5, tools.Answers)
	assert.Equal(t, 7, tools.Responses)
}

func TestRun_Downloads(t *testing.T) {
	data := exportCSV(t)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	cfg := testConfig(t, render.ChartBar)
	cfg.SourceURL = srv.URL
	listener := &recordingListener{}

	result, err := NewRunner(cfg, WithListener(listener)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Downloaded)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Len(t, result.Charts, len(survey.Catalog))

	cached, err := os.ReadFile(cfg.DataFile)
	require.NoError(t, err)
	assert.Equal(t, data, cached)

	assert.Equal(t, 2, listener.count(EventFetchStarted))
	assert.Equal(t, 1, listener.count(EventFetchRetrying))
}

func TestRun_RetryLoggedOnce(t *testing.T) {
	var logs bytes.Buffer
	previous, level := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&logs)
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(level)
	})

	data := exportCSV(t)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	cfg := testConfig(t, render.ChartPie)
	cfg.SourceURL = srv.URL
	cfg.Questions = []string{"learning"}

	_, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(logs.String(), "Download failed, retrying"))
}

func TestRun_NetworkFailureWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, render.ChartPie)
	cfg.SourceURL = srv.URL
	cfg.Retry.MaxAttempts = 2

	_, err := NewRunner(cfg).Run(context.Background())
	require.ErrorIs(t, err, fetch.ErrNetworkFailure)
	assert.NoFileExists(t, cfg.DataFile)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_MissingQuestionWritesNothing(t *testing.T) {
	cfg := testConfig(t, render.ChartPie)
	writeCached(t, cfg, exportCSV(t, "professor"))

	_, err := NewRunner(cfg).Run(context.Background())
	require.ErrorIs(t, err, survey.ErrQuestionNotFound)
	assert.Contains(t, err.Error(), "professor")
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_UnknownQuestionSlug(t *testing.T) {
	cfg := testConfig(t, render.ChartPie)
	cfg.Questions = []string{"weather"}

	_, err := NewRunner(cfg).Run(context.Background())
	require.ErrorIs(t, err, survey.ErrQuestionNotFound)
	assert.NoFileExists(t, cfg.DataFile)
}

func TestRun_Parallel(t *testing.T) {
	cfg := testConfig(t, render.ChartPie)
	cfg.Parallelism = 4
	writeCached(t, cfg, exportCSV(t))

	result, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Charts, len(survey.Catalog))
	for i, def := range survey.Catalog {
		assert.Equal(t, def.Slug, result.Charts[i].Slug)
		assert.FileExists(t, result.Charts[i].Path)
	}
}

func TestRun_UnknownChartType(t *testing.T) {
	cfg := testConfig(t, render.ChartType(9))
	writeCached(t, cfg, exportCSV(t))

	_, err := NewRunner(cfg).Run(context.Background())
	require.ErrorIs(t, err, render.ErrUnknownChartType)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestMetrics(t *testing.T) {
	cfg := testConfig(t, render.ChartPie)
	cfg.Questions = []string{"learning", "frequency"}
	writeCached(t, cfg, exportCSV(t))

	got, err := NewRunner(cfg).Metrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "frequency", got[0].Slug)
	assert.Equal(t, "learning", got[1].Slug)

	learning := got[1].Metrics
	assert.Equal(t, 4, learning.Total)
	require.Len(t, learning.Rows, 2)
	assert.Equal(t, survey.Metric{Answer: "Sim", Count: 3, Fraction: 0.75}, learning.Rows[0])
	assert.Equal(t, survey.Metric{Answer: "Não", Count: 1, Fraction: 0.25}, learning.Rows[1])

	assert.NoDirExists(t, cfg.OutputDir)
}
