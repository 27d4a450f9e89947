package cli

import (
	"github.com/spf13/cobra"
)

func buildPopCommand() *cobra.Command {
	var queue, worker string
	var count int

	cmd := &cobra.Command{
		Use:   "pop",
		Short: "Pop ready jobs from a queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := eng.Pop(queue, worker, now(), count)
			if err != nil {
				return err
			}
			for range jobs {
				collector.RecordPop()
			}
			return printJSON(jobs)
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "", "queue to pop from")
	cmd.Flags().StringVar(&worker, "worker", "", "worker id claiming the jobs")
	cmd.Flags().IntVar(&count, "count", 1, "maximum jobs to pop")
	cmd.MarkFlagRequired("queue")
	cmd.MarkFlagRequired("worker")
	return cmd
}
