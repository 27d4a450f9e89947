package cli

import (
	"github.com/spf13/cobra"
)

func buildCancelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel [jid...]",
		Short: "Cancel one or more jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canceled, err := eng.Cancel(now(), args...)
			if err != nil {
				return err
			}
			collector.RecordCancelled()
			return printJSON(map[string]any{"canceled": canceled})
		},
	}
	return cmd
}
