package cli

import (
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/jobqueue/internal/engine"
)

func buildRetryCommand() *cobra.Command {
	var jid, queue, worker, group, message string
	var delay int64

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Return a running job to waiting or scheduled",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := eng.Retry(engine.RetryArgs{
				Now:     now(),
				Jid:     jid,
				Queue:   queue,
				Worker:  worker,
				Group:   group,
				Message: message,
				Delay:   delay,
			})
			if err != nil {
				return err
			}
			collector.RecordRetry()
			return printJSON(map[string]any{"jid": jid, "state": state})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.Flags().StringVar(&queue, "queue", "", "queue the job was popped from")
	cmd.Flags().StringVar(&worker, "worker", "", "worker id that popped the job")
	cmd.Flags().StringVar(&group, "group", "", "failure group, used only if retries are exhausted")
	cmd.Flags().StringVar(&message, "message", "", "failure message, used only if retries are exhausted")
	cmd.Flags().Int64Var(&delay, "delay", 0, "seconds before the retried job becomes ready")
	cmd.MarkFlagRequired("jid")
	cmd.MarkFlagRequired("worker")
	return cmd
}
