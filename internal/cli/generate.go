package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/protoval/protoval/internal/compile"
)

// NewGenerateCommand создает команду generate
func NewGenerateCommand(f *flags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate <file.proto>...",
		Short: "Generate validation code into a directory",
		Long: `Generate <name>.pb.validate.go for every given file. Paths are relative
to the output directory, as with protoc paths=source_relative.
Nothing is written when any file has errors.`,
		Example: `  protoval generate -I proto --out gen shop/v1/shop.proto`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, res, err := f.run(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := printDiagnostics(w, res.Diagnostics); err != nil {
				return err
			}
			files, err := compile.Files(gen)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(files))
			for name := range files {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				path := filepath.Join(out, filepath.FromSlash(name))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("os.MkdirAll: %w", err)
				}
				if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
					return fmt.Errorf("os.WriteFile: %w", err)
				}
				color.New(color.FgGreen).Fprint(w, "wrote ")
				fmt.Fprintln(w, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	return cmd
}
