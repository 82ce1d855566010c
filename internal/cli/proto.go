package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/protoval/protoval/pkg/protoval"
)

// NewProtoCommand создает команду proto с подкомандой export
func NewProtoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proto",
		Short: "Work with protoval/options.proto",
	}
	var dir string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write protoval/options.proto into an include directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := protoval.Export(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	export.Flags().StringVarP(&dir, "dir", "d", ".", "include directory")
	cmd.AddCommand(export)
	return cmd
}
