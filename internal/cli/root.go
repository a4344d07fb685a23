package cli

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surveygraph/graph/internal/config"
	"github.com/surveygraph/graph/internal/render"
	"github.com/surveygraph/graph/internal/style"
)

// app holds the state shared by one command tree. Every call to NewRootCmd
// gets its own, so commands never read process globals.
type app struct {
	v *viper.Viper

	cfgFile      string
	logLevel     string
	outputFormat string
	quiet        bool
}

// NewRootCmd builds the graph command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "graph <pie|bar>",
		Short: "Chart the answers of the AI usage survey",
		Long: `graph downloads the survey export, counts the answers of every question and
writes one SVG chart per question.

The export is cached in the data file; delete it to download fresh responses.
Free text answers listing several tools are split, cleaned up and merged before
counting.`,
		Example: `
  graph pie                             # one pie chart per question in ./build
  graph bar --output-dir charts         # bar charts in ./charts
  graph pie --only tools,opinion        # only two questions
  graph bar --config graph.yaml         # settings from a YAML file`,
		Version:   getVersion(),
		Args:      cobra.ExactArgs(1),
		ValidArgs: render.ChartTypes,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validateOutputFormat(); err != nil {
				return err
			}
			a.initLogging(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctype, err := render.ParseChartType(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			cfg.ChartType = ctype

			return a.generate(cmd, cfg)
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "disabled", "log level (debug, info, warn, error)")
	pf.StringVar(&a.outputFormat, "output", "text", "output format (text, json, yaml)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress progress output")
	pf.String("url", defaults.SourceURL, "URL of the CSV export")
	pf.String("data-file", defaults.DataFile, "local copy of the CSV export, downloaded when missing")

	f := rootCmd.Flags()
	f.String("output-dir", defaults.OutputDir, "directory receiving the charts")
	f.StringSlice("only", nil, "question slugs to chart (see 'graph questions')")
	f.Int("parallelism", defaults.Parallelism, "number of charts rendered at the same time")

	_ = a.v.BindPFlag(config.KeySourceURL, pf.Lookup("url"))
	_ = a.v.BindPFlag(config.KeyDataFile, pf.Lookup("data-file"))
	_ = a.v.BindPFlag(config.KeyOutputDir, f.Lookup("output-dir"))
	_ = a.v.BindPFlag(config.KeyQuestions, f.Lookup("only"))
	_ = a.v.BindPFlag(config.KeyParallelism, f.Lookup("parallelism"))

	rootCmd.AddCommand(
		newMetricsCmd(a),
		newQuestionsCmd(a),
		newSchemaCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

// Execute runs the graph command tree with the styled fang front end.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, NewRootCmd(), fang.WithVersion(Version), fang.WithColorSchemeFunc(func(lightDark lipgloss.LightDarkFunc) fang.ColorScheme {
		return fang.ColorScheme{
			Base:           style.PrimaryTextColor,
			Title:          style.AccentColor,
			Description:    style.PrimaryTextColor,
			Codeblock:      style.CodeColor,
			Program:        style.AccentColor,
			DimmedArgument: style.MutedColor,
			Comment:        style.MutedColor,
			Flag:           style.InfoColor,
			FlagDefault:    style.MutedColor,
			Command:        style.SuccessColor,
			QuotedString:   style.WarningColor,
			Argument:       style.PrimaryTextColor,
			Help:           style.InfoColor,
			Dash:           style.MutedColor,
			ErrorHeader:    [2]color.Color{style.ErrorColor, style.ErrorBgColor},
			ErrorDetails:   style.ErrorColor,
		}
	}))
}

func (a *app) validateOutputFormat() error {
	switch a.outputFormat {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid output format %q (expected one of: text, json, yaml)", a.outputFormat)
	}
}

// initLogging configures the global logger
func (a *app) initLogging(cmd *cobra.Command) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch strings.ToLower(a.logLevel) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	if !a.quiet && a.outputFormat == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// showProgress reports whether progress lines should be printed.
func (a *app) showProgress() bool {
	return !a.quiet && a.outputFormat == "text"
}

// print writes data in the selected structured format, or calls text.
func (a *app) print(cmd *cobra.Command, data interface{}, text func()) error {
	switch a.outputFormat {
	case "json":
		return style.PrintJSON(cmd.OutOrStdout(), data)
	case "yaml":
		return style.PrintYAML(cmd.OutOrStdout(), data)
	default:
		text()
		return nil
	}
}
