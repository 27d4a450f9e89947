package cli

import (
	"github.com/spf13/cobra"
)

func buildResourceCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "resource",
		Short: "Manage counted resources",
	}
	root.AddCommand(buildResourceSetCommand(), buildResourceGetCommand(), buildResourceUnsetCommand())
	return root
}

func buildResourceSetCommand() *cobra.Command {
	var rid string
	var max int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or resize a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := eng.ResourceSet(rid, max); err != nil {
				return err
			}
			return printJSON(map[string]any{"rid": rid, "max": max})
		},
	}
	cmd.Flags().StringVar(&rid, "rid", "", "resource id")
	cmd.Flags().IntVar(&max, "max", 1, "maximum concurrent locks")
	cmd.MarkFlagRequired("rid")
	return cmd
}

func buildResourceGetCommand() *cobra.Command {
	var rid string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a resource's current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := eng.ResourceGet(rid)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&rid, "rid", "", "resource id")
	cmd.MarkFlagRequired("rid")
	return cmd
}

func buildResourceUnsetCommand() *cobra.Command {
	var rid string
	cmd := &cobra.Command{
		Use:   "unset",
		Short: "Remove a resource (must have no locks or pending waiters)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return eng.ResourceUnset(rid)
		},
	}
	cmd.Flags().StringVar(&rid, "rid", "", "resource id")
	cmd.MarkFlagRequired("rid")
	return cmd
}
