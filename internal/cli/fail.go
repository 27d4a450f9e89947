package cli

import (
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/jobqueue/internal/engine"
)

func buildFailCommand() *cobra.Command {
	var jid, worker, group, message, data string

	cmd := &cobra.Command{
		Use:   "fail",
		Short: "Terminally fail a running job",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := eng.Fail(engine.FailArgs{
				Now:     now(),
				Jid:     jid,
				Worker:  worker,
				Group:   group,
				Message: message,
				Data:    []byte(data),
			})
			if err != nil {
				return err
			}
			collector.RecordFailed()
			return printJSON(map[string]any{"jid": jid, "state": "failed"})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.Flags().StringVar(&worker, "worker", "", "worker id that popped the job")
	cmd.Flags().StringVar(&group, "group", "", "failure group")
	cmd.Flags().StringVar(&message, "message", "", "failure message")
	cmd.Flags().StringVar(&data, "data", "", "result payload")
	cmd.MarkFlagRequired("jid")
	cmd.MarkFlagRequired("worker")
	cmd.MarkFlagRequired("group")
	return cmd
}
