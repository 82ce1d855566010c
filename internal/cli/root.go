// Package cli содержит команды protoval: проверку и генерацию без protoc,
// выгрузку options.proto и версию.
package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/protobuf/compiler/protogen"

	"github.com/protoval/protoval/internal/compile"
	"github.com/protoval/protoval/internal/config"
	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/logger"
	"github.com/protoval/protoval/internal/pipeline"
)

var (
	// Version информация о сборке, задается через -ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// flags общие флаги команд
type flags struct {
	config     string
	logLevel   string
	importPath []string
	pgv        bool
}

// NewRootCommand создает корневую команду
func NewRootCommand() *cobra.Command {
	f := &flags{}
	rootCmd := &cobra.Command{
		Use:   "protoval",
		Short: "Compile protoval validation options into Go checks",
		Long: color.CyanString(`protoval - validation options for protobuf

Checks the (protoval.*) options of .proto files and generates
ValidateAt/Validate methods and validating builders for their messages.
The same generator runs as the protoc plugin protoc-gen-protoval.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "", "configuration file (yaml, json or toml)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringArrayVarP(&f.importPath, "proto_path", "I", nil, "directory to search for imports (repeatable)")
	pf.BoolVar(&f.pgv, "pgv", false, "translate protoc-gen-validate rules")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand(f))
	rootCmd.AddCommand(NewGenerateCommand(f))
	rootCmd.AddCommand(NewProtoCommand())

	return rootCmd
}

// NewVersionCommand создает команду version
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			title.Fprint(w, "protoval version: ")
			fmt.Fprintln(w, Version)
			title.Fprint(w, "Git commit: ")
			fmt.Fprintln(w, GitCommit)
			title.Fprint(w, "Go version: ")
			fmt.Fprintln(w, runtime.Version())
		},
	}
}

// Execute запускает корневую команду
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// setup читает конфигурацию, применяет флаги и создает логгер
func (f *flags) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel != "" {
		cfg.Logger.Level = f.logLevel
	}
	if cmd.Flags().Changed("pgv") {
		cfg.Interop.PGV = f.pgv
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.NewWriter(cfg.Logger.Level, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// run компилирует файлы и прогоняет генератор
func (f *flags) run(ctx context.Context, cmd *cobra.Command, files []string) (*protogen.Plugin, *pipeline.Result, error) {
	cfg, log, err := f.setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = log.Sync() }()

	importPaths := f.importPath
	if len(importPaths) == 0 {
		importPaths = []string{"."}
	}
	gen, err := compile.Plugin(ctx, compile.Request{
		ImportPaths: importPaths,
		Files:       files,
		Parameter:   "paths=source_relative",
	}, protogen.Options{})
	if err != nil {
		return nil, nil, err
	}
	res, err := pipeline.Run(ctx, gen, pipeline.Options{Config: cfg, Logger: log})
	if err != nil {
		return nil, nil, err
	}
	return gen, res, nil
}

// printDiagnostics печатает диагностики и возвращает сводную ошибку, если
// есть фатальные
func printDiagnostics(w io.Writer, c *diag.Collector) error {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	for _, e := range c.Errors() {
		fmt.Fprintf(w, "%s: ", e.Span())
		red.Fprintln(w, e.Error())
	}
	for _, warn := range c.Warnings() {
		fmt.Fprintf(w, "%s: ", warn.Span())
		yellow.Fprintln(w, warn.String())
	}
	return c.Summary()
}
