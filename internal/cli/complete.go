package cli

import (
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/jobqueue/internal/engine"
)

func buildCompleteCommand() *cobra.Command {
	var jid, worker, queue, data, next string
	var delay int64
	var depends []string

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a running job, optionally chaining it into a next queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := eng.Complete(engine.CompleteArgs{
				Now:     now(),
				Jid:     jid,
				Worker:  worker,
				Queue:   queue,
				Data:    []byte(data),
				Next:    next,
				Delay:   delay,
				Depends: depends,
			})
			if err != nil {
				return err
			}
			collector.RecordCompleted(0)
			return printJSON(map[string]any{"jid": jid, "state": state})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.Flags().StringVar(&worker, "worker", "", "worker id that popped the job")
	cmd.Flags().StringVar(&queue, "queue", "", "queue the job was popped from")
	cmd.Flags().StringVar(&data, "data", "", "result payload")
	cmd.Flags().StringVar(&next, "next", "", "chain into this queue instead of finishing")
	cmd.Flags().Int64Var(&delay, "delay", 0, "delay before the chained job becomes ready")
	cmd.Flags().StringSliceVar(&depends, "depends", nil, "dependencies for the chained job")
	cmd.MarkFlagRequired("jid")
	cmd.MarkFlagRequired("worker")
	cmd.MarkFlagRequired("queue")
	return cmd
}
