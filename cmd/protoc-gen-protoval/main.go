// Command protoc-gen-protoval генерирует проверки опций protoval для protoc.
//
// Использование:
//
//	protoc --plugin=protoc-gen-protoval=./bin/protoc-gen-protoval \
//	       --protoval_out=paths=source_relative,log_level=info:gen \
//	       -I proto shop/v1/shop.proto
//
// Параметры: config=<file> задает файл конфигурации, остальные параметры
// (log_level, pgv, emit_builders, builder_suffix, file_suffix, parallelism)
// переопределяют его значения.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/protoval/protoval/internal/config"
	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/logger"
	"github.com/protoval/protoval/internal/pipeline"
)

// param параметр плагина в порядке передачи
type param struct {
	name, value string
}

func main() {
	var params []param
	opts := protogen.Options{
		ParamFunc: func(name, value string) error {
			params = append(params, param{name, value})
			return nil
		},
	}
	opts.Run(func(gen *protogen.Plugin) error {
		return run(context.Background(), gen, params, os.Stderr)
	})
}

// configure загружает конфигурацию из config= и применяет остальные параметры
func configure(params []param) (*config.Config, error) {
	var path string
	for _, p := range params {
		if p.name == "config" {
			path = p.value
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		if p.name == "config" {
			continue
		}
		if err := cfg.Set(p.name, p.value); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run генерирует файлы; диагностики печатаются в stderr, фатальные
// возвращаются как ошибка плагина
func run(ctx context.Context, gen *protogen.Plugin, params []param, stderr io.Writer) error {
	gen.SupportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)

	cfg, err := configure(params)
	if err != nil {
		return err
	}
	log, err := logger.NewWriter(cfg.Logger.Level, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	res, err := pipeline.Run(ctx, gen, pipeline.Options{Config: cfg, Logger: log})
	if err != nil {
		return fmt.Errorf("pipeline.Run: %w", err)
	}
	if err := diag.Format(stderr, res.Diagnostics); err != nil {
		return fmt.Errorf("diag.Format: %w", err)
	}
	return res.Diagnostics.Summary()
}
