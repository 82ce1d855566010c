package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewCheckCommand создает команду check
func NewCheckCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.proto>...",
		Short: "Check validation options without writing code",
		Example: `  # Check a file relative to the proto directory
  protoval check -I proto shop/v1/shop.proto`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := f.run(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := printDiagnostics(w, res.Diagnostics); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprint(w, "ok")
			fmt.Fprintf(w, " %d file(s), %d warning(s)\n", len(args), len(res.Diagnostics.Warnings()))
			return nil
		},
	}
}
