package main

import (
	"fundrag/backend/internal/resolver"
	"github.com/spf13/cobra"
)

// resolveOutput is what the resolve command prints
type resolveOutput struct {
	Query    string            `json:"query"`
	Intent   resolver.Intent   `json:"intent"`
	Entities map[string]string `json:"entities"`
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <question>",
		Short: "Show the intent and entity a question resolves to",
		Long: `Run only the entity and intent resolver. Useful for checking which
knowledge base term a question matches.

Examples:
  fundrag resolve "Which funds does Beta Investments manage?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.startServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close(cmd.Context())

			question := joinArgs(args)
			resolution := resolver.New(svc.Store.Current()).Resolve(question)
			return writeOutput(cmd.OutOrStdout(), &resolveOutput{
				Query:    question,
				Intent:   resolution.Intent,
				Entities: resolution.Entities(),
			}, OutputFormat(opts.format))
		},
	}
}
