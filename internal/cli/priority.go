package cli

import (
	"github.com/spf13/cobra"
)

func buildPriorityCommand() *cobra.Command {
	var jid string
	var priority int

	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Change a job's priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := eng.Priority(jid, priority)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"jid": jid, "state": state})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.Flags().IntVar(&priority, "priority", 0, "new priority")
	cmd.MarkFlagRequired("jid")
	return cmd
}
