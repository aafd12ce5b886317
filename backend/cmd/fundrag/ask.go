package main

import (
	"context"

	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/constants"
	"github.com/spf13/cobra"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var retrieveOnly bool
	var model string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the knowledge base",
		Long: `Resolve the question, assemble context from the knowledge base and
generate an answer with the configured model.

Examples:
  fundrag ask "Which funds are affected by Crude Oil Price?"
  fundrag ask --retrieve-only "Tell me about FundC Infrastructure"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.startServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close(context.Background())

			question := joinArgs(args)
			var res *agent.Result
			if retrieveOnly {
				res = svc.Orchestrator.Retrieve(question)
			} else {
				if model != "" {
					svc.LLM.SetModel(model)
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), constants.QueryTimeout)
				defer cancel()
				res = svc.Orchestrator.Answer(ctx, question)
			}
			return writeOutput(cmd.OutOrStdout(), res, OutputFormat(opts.format))
		},
	}

	cmd.Flags().BoolVar(&retrieveOnly, "retrieve-only", false, "Print the assembled context without generating an answer")
	cmd.Flags().StringVar(&model, "model", "", "Model id override (default: $MODEL_ID)")
	return cmd
}
