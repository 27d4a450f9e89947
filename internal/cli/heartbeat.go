package cli

import (
	"github.com/spf13/cobra"
)

func buildHeartbeatCommand() *cobra.Command {
	var jid, worker, data string

	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Extend a running job's lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			expires, err := eng.Heartbeat(now(), jid, worker, []byte(data))
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"jid": jid, "expires": expires})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.Flags().StringVar(&worker, "worker", "", "worker id that popped the job")
	cmd.Flags().StringVar(&data, "data", "", "progress payload")
	cmd.MarkFlagRequired("jid")
	cmd.MarkFlagRequired("worker")
	return cmd
}
