package cli

import (
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/jobqueue/internal/engine"
)

func buildPutCommand() *cobra.Command {
	var jid, queue, klass, data string
	var delay int64
	var retries, priority int
	var depends, resources, tags []string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Create or requeue a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := eng.Put(engine.PutArgs{
				Now:       now(),
				Queue:     queue,
				Jid:       newJid(jid),
				Klass:     klass,
				Data:      []byte(data),
				Delay:     delay,
				Retries:   retries,
				Depends:   depends,
				Resources: resources,
				Priority:  priority,
				Tags:      tags,
			})
			if err != nil {
				return err
			}
			collector.RecordPut()
			return printJSON(map[string]any{"jid": jid, "state": state})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id (generated if omitted)")
	cmd.Flags().StringVar(&queue, "queue", "", "destination queue")
	cmd.Flags().StringVar(&klass, "klass", "", "job class/type")
	cmd.Flags().StringVar(&data, "data", "", "opaque job payload")
	cmd.Flags().Int64Var(&delay, "delay", 0, "seconds before the job becomes ready")
	cmd.Flags().IntVar(&retries, "retries", -1, "retry budget (-1 = default of 5)")
	cmd.Flags().IntVar(&priority, "priority", 0, "scheduling priority, higher runs first")
	cmd.Flags().StringSliceVar(&depends, "depends", nil, "jids this job depends on")
	cmd.Flags().StringSliceVar(&resources, "resources", nil, "resource ids this job must acquire")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "free-form tags")
	cmd.MarkFlagRequired("queue")
	cmd.MarkFlagRequired("klass")
	return cmd
}
