// Package pipeline связывает фазы генерации для одного пакета схем.
//
// Фаза 1 (discovery) полностью завершается до начала фазы 2: генераторы
// читают ir.Table как неизменяемый снимок. В фазе 2 фрагменты каждого типа
// генерируются независимо и объединяются при вплетении в файл. Файл, для
// которого есть фатальные диагностики, не генерируется.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/codegen"
	"github.com/protoval/protoval/internal/config"
	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/discovery"
	"github.com/protoval/protoval/internal/inject"
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/options"
	"github.com/protoval/protoval/internal/schema"
	"github.com/protoval/protoval/internal/sink"
)

// Options параметры запуска
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *options.Registry
}

// GeneratedFile сгенерированный файл
type GeneratedFile struct {
	Name   string
	Source string
	Types  int
}

// Result итог запуска
type Result struct {
	Batch       string
	Files       []GeneratedFile
	Diagnostics *diag.Collector
}

// Run обрабатывает файлы плагина с флагом Generate и записывает результат
// через gen.NewGeneratedFile. Ошибка возвращается только при внутреннем
// сбое; проблемы схемы попадают в Result.Diagnostics.
func Run(ctx context.Context, gen *protogen.Plugin, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{Batch: uuid.NewString(), Diagnostics: diag.NewCollector()}
	log = log.With(zap.String("batch", res.Batch))
	started := time.Now()

	var targets []*protogen.File
	var fds []protoreflect.FileDescriptor
	for _, f := range gen.Files {
		if !f.Generate {
			continue
		}
		targets = append(targets, f)
		fds = append(fds, f.Desc)
	}

	table, err := discovery.Discover(ctx, fds, discovery.Options{
		Registry:    opts.Registry,
		Diagnostics: res.Diagnostics,
		Logger:      log,
		Legacy:      cfg.Interop.PGV,
		Parallelism: cfg.Generator.Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("discovery.Discover: %w", err)
	}

	for _, f := range targets {
		if res.Diagnostics.HasErrorsIn(f.Desc.Path()) {
			log.Warn("file skipped", zap.String("file", f.Desc.Path()))
			continue
		}
		out, err := generateFile(ctx, gen, f, table, cfg, res.Diagnostics)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", f.Desc.Path(), err)
		}
		if out == nil {
			continue
		}
		res.Files = append(res.Files, *out)
		log.Debug("file generated", zap.String("file", out.Name), zap.Int("types", out.Types))
	}

	log.Info("generation finished",
		zap.Int("files", len(res.Files)),
		zap.Int("errors", len(res.Diagnostics.Errors())),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

// messages возвращает типы файла в порядке объявления, вложенные после
// родителя. map entry пропускаются.
func messages(list []*protogen.Message) []*protogen.Message {
	var out []*protogen.Message
	for _, m := range list {
		if m.Desc.IsMapEntry() {
			continue
		}
		out = append(out, m)
		out = append(out, messages(m.Messages)...)
	}
	return out
}

func fileName(f *protogen.File, suffix string) string {
	return f.GeneratedFilenamePrefix + suffix
}

// generateFile выполняет фазу 2 для одного файла. nil результат означает,
// что файл не создан.
func generateFile(ctx context.Context, gen *protogen.Plugin, f *protogen.File, table *ir.Table, cfg *config.Config, diags *diag.Collector) (*GeneratedFile, error) {
	msgs := messages(f.Messages)
	if len(msgs) == 0 {
		return nil, nil
	}

	name := fileName(f, cfg.Generator.FileSuffix)
	g := gen.NewGeneratedFile(name, f.GoImportPath)
	rt := codegen.NewRuntime(g.QualifiedGoIdent)

	frags := make([][]codegen.Fragment, len(msgs))
	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Generator.Parallelism > 0 {
		eg.SetLimit(cfg.Generator.Parallelism)
	}
	for i, msg := range msgs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := generateType(&codegen.Context{Runtime: rt, Message: msg}, table.ForType(schema.TypeOf(msg.Desc)), diags)
			if err != nil {
				return fmt.Errorf("type %s: %w", msg.Desc.FullName(), err)
			}
			frags[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.Skip()
		return nil, err
	}
	if diags.HasErrorsIn(f.Desc.Path()) {
		g.Skip()
		return nil, nil
	}

	file := sink.NewFile(sink.Options{
		Package:       string(f.GoPackageName),
		Source:        f.Desc.Path(),
		BuilderSuffix: cfg.Generator.BuilderSuffix,
		Qualify:       g.QualifiedGoIdent,
	})
	for i, msg := range msgs {
		file.DeclareMessage(msg.GoIdent, cfg.Generator.EmitBuilders)
		err := inject.Inject(file, rt, inject.Message{
			GoIdent:   msg.GoIdent,
			FullName:  string(msg.Desc.FullName()),
			Builder:   cfg.Generator.EmitBuilders,
			Fragments: frags[i],
		})
		if err != nil {
			g.Skip()
			return nil, fmt.Errorf("inject.Inject %s: %w", msg.Desc.FullName(), err)
		}
	}

	content, err := file.Render()
	if err != nil {
		g.Skip()
		return nil, err
	}
	if _, err := g.Write(content); err != nil {
		return nil, fmt.Errorf("g.Write: %w", err)
	}
	return &GeneratedFile{Name: name, Source: f.Desc.Path(), Types: len(msgs)}, nil
}

// generateType генерирует фрагменты всех представлений типа. Шаблон без
// выражения для подстановки становится диагностикой, остальные ошибки
// возвращаются.
func generateType(ctx *codegen.Context, views ir.TypeViews, diags *diag.Collector) ([]codegen.Fragment, error) {
	out := make([]codegen.Fragment, 0, len(views))
	for _, v := range views {
		frag, err := codegen.Generate(ctx, v)
		var te *codegen.TemplateError
		switch {
		case errors.As(err, &te):
			diags.Error(diag.NewError(3002, te.Error(), v.Base().Span))
			continue
		case err != nil:
			return nil, err
		}
		out = append(out, frag)
	}
	return out, nil
}
