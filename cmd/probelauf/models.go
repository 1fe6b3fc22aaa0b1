package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rhuss/probelauf/pkg/chat"
)

func newModelsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the backend advertises",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			check, err := cfg.Check.Resolve()
			if err != nil {
				return err
			}

			client, err := chat.NewFromCheck(check)
			if err != nil {
				return err
			}
			defer client.Close()

			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Model", "Owned By"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, m := range models {
				table.Append([]string{m.ID, m.OwnedBy})
			}
			table.Render()
			return nil
		},
	}
	return cmd
}
