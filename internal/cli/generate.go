package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/surveygraph/graph/internal/config"
	"github.com/surveygraph/graph/internal/engine"
	"github.com/surveygraph/graph/internal/style"
)

// generate runs the full pipeline and prints its result.
func (a *app) generate(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().
		Str("chart", cfg.ChartType.String()).
		Str("data_file", cfg.DataFile).
		Str("output_dir", cfg.OutputDir).
		Strs("questions", cfg.Questions).
		Int("parallelism", cfg.Parallelism).
		Msg("Starting run")

	result, err := engine.NewRunner(cfg, engine.WithListener(a.listener(cmd))).Run(ctx)
	if err != nil {
		return err
	}

	return a.print(cmd, result, func() {
		if a.quiet {
			return
		}
		style.Success(cmd.OutOrStdout(), fmt.Sprintf("Generated %d %s chart(s) in %s %s",
			len(result.Charts),
			result.ChartType,
			style.FormatFilePath(result.OutputDir),
			style.DurationStyle.Render(result.Duration.Round(time.Millisecond).String()),
		))
	})
}

func (a *app) listener(cmd *cobra.Command) engine.Listener {
	if !a.showProgress() {
		return &engine.NoopListener{}
	}
	return newProgressListener(cmd.ErrOrStderr())
}
