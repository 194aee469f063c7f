package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vidtriage/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var pingAI bool

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Verify external tools, directories and the AI credential",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := preflight.Options{PingAI: pingAI}
			if len(args) == 1 {
				dir, err := targetDirectory(args[0])
				if err != nil {
					return err
				}
				opts.TargetDir = dir
			}

			results := preflight.RunAll(cmd.Context(), cfg, opts)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "OK"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pingAI, "ping-ai", false, "Send a minimal request to confirm the key and model work")
	return cmd
}
