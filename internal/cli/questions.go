package cli

import (
	"github.com/spf13/cobra"

	"github.com/surveygraph/graph/internal/survey"
)

func newQuestionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List the survey questions",
		Long:  `List the questions charted by graph with the slug used for their file name and for --only.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(cmd, survey.Catalog, func() {
				rows := make([][]string, 0, len(survey.Catalog))
				for _, def := range survey.Catalog {
					multi := "no"
					if def.MultiSelect {
						multi = "yes"
					}
					rows = append(rows, []string{def.Slug, multi, def.Title})
				}
				printTable(cmd.OutOrStdout(), []string{"SLUG", "MULTI", "TITLE"}, rows)
			})
		},
	}
}
