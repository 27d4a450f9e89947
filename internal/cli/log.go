package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func buildLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append or inspect a job's history",
	}
	cmd.AddCommand(buildLogAppendCommand(), buildLogHistoryCommand())
	return cmd
}

func buildLogAppendCommand() *cobra.Command {
	var jid, what, data string

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a note to a job's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields map[string]any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &fields); err != nil {
					return err
				}
			}
			if err := eng.Log(now(), jid, what, fields); err != nil {
				return err
			}
			return printJSON(map[string]any{"jid": jid, "what": what})
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.Flags().StringVar(&what, "what", "", "event label")
	cmd.Flags().StringVar(&data, "data", "", "additional event fields as JSON")
	cmd.MarkFlagRequired("jid")
	cmd.MarkFlagRequired("what")
	return cmd
}

func buildLogHistoryCommand() *cobra.Command {
	var jid string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a job's recorded history",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := eng.History(jid)
			if err != nil {
				return err
			}
			return printJSON(events)
		},
	}

	cmd.Flags().StringVar(&jid, "jid", "", "job id")
	cmd.MarkFlagRequired("jid")
	return cmd
}
