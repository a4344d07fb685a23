package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/surveygraph/graph/internal/config"
	"github.com/surveygraph/graph/internal/engine"
	"github.com/surveygraph/graph/internal/render"
	"github.com/surveygraph/graph/internal/style"
	"github.com/surveygraph/graph/internal/survey"
)

func newMetricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [slug...]",
		Short: "Print the answer counts of each question",
		Long: `Print the answer distribution of each question without drawing charts.

The export is downloaded first when the data file is missing. Without slugs
every question is printed.`,
		Example: `
  graph metrics                 # every question
  graph metrics tools opinion   # two questions
  graph metrics --output json   # for scripts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Questions = args
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metrics, err := engine.NewRunner(cfg, engine.WithListener(a.listener(cmd))).Metrics(ctx)
			if err != nil {
				return err
			}

			return a.print(cmd, metrics, func() {
				printMetrics(cmd, metrics)
			})
		},
	}
}

func printMetrics(cmd *cobra.Command, metrics []engine.QuestionMetrics) {
	w := cmd.OutOrStdout()
	labels := survey.DefaultLabels

	for i, qm := range metrics {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", style.HeaderStyle.Render(qm.Slug), qm.Title)

		rows := make([][]string, 0, len(qm.Metrics.Rows))
		for _, row := range qm.Metrics.Rows {
			rows = append(rows, []string{
				answerText(row.Answer),
				fmt.Sprintf("%d", row.Count),
				fmt.Sprintf("%.1f%%", row.Percent()),
			})
		}
		printTable(w, []string{labels.Answers, labels.Count, labels.Percent}, rows)
		fmt.Fprintln(w, style.MutedStyle.Render(fmt.Sprintf("%d response(s)", qm.Metrics.Total)))
	}
}

func answerText(answer string) string {
	if strings.TrimSpace(answer) == "" {
		return render.EmptyAnswer
	}
	return answer
}
