package main

import (
	"errors"

	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/query"
	"github.com/spf13/cobra"
)

func newEntitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the funds, AMCs, sectors and factors in the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.startServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close(cmd.Context())

			catalog, ok := query.NewEngine(svc.Store.Current()).Catalog()
			if !ok {
				return errDataUnavailable
			}
			return writeOutput(cmd.OutOrStdout(), &catalog, OutputFormat(opts.format))
		},
	}
}

var errDataUnavailable = errors.New(constants.MsgDataUnavailable)
