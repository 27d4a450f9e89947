package cli

import (
	"github.com/spf13/cobra"
)

func buildConfigCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "Inspect or override the engine's named tunables",
	}
	root.AddCommand(buildConfigGetCommand(), buildConfigSetCommand())
	return root
}

func buildConfigGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Read a tunable's current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := eng.ConfigGet(args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]string{args[0]: v})
		},
	}
	return cmd
}

func buildConfigSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [name] [value]",
		Short: "Override a tunable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eng.ConfigSet(args[0], args[1])
		},
	}
	return cmd
}
