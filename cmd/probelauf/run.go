package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhuss/probelauf/pkg/chat"
	"github.com/rhuss/probelauf/pkg/verify"
)

// errScenariosFailed signals a completed run with failing scenarios, as
// opposed to a run that could not start at all.
var errScenariosFailed = errors.New("one or more scenarios failed")

func newRunCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all verification scenarios once and print a report",
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

			runner := verify.NewRunner(client, check, nil)

			started := time.Now()
			outcomes := runner.Run(cmd.Context())

			verify.WriteReport(os.Stdout, outcomes)
			fmt.Printf("endpoint: %s  model: %s  total: %s\n",
				check.Endpoint, check.Model, time.Since(started).Round(time.Millisecond))

			if !verify.AllPassed(outcomes) {
				return errScenariosFailed
			}
			return nil
		},
	}
	return cmd
}
