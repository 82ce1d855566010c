// Package discovery находит опции валидации в схеме, проверяет их применимость,
// разбирает параметры и материализует представления ir.
//
// Каждый тип сообщения обходится собственным потоком событий (TypeEntered,
// FieldEntered/OneofEntered в порядке объявления, TypeExited). Потоки разных
// типов не разделяют изменяемого состояния и обрабатываются параллельно;
// результат объединяется в неизменяемую ir.Table только после завершения
// обхода всех типов.
//
// Ошибки применимости, разбора и шаблонов попадают в diag.Collector и не
// прерывают обход: пользователь видит все проблемы за один запуск.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/options"
	"github.com/protoval/protoval/internal/schema"
)

// Options параметры обнаружения
type Options struct {
	Registry    *options.Registry
	Diagnostics *diag.Collector
	Logger      *zap.Logger
	// Legacy включает перевод правил protoc-gen-validate
	Legacy bool
	// Parallelism ограничивает число одновременно обходимых типов, 0 без ограничения
	Parallelism int
}

// Discover обходит все типы сообщений файлов и возвращает таблицу представлений.
// Ошибка возвращается только при внутреннем сбое; проблемы схемы сообщаются
// через opts.Diagnostics.
func Discover(ctx context.Context, files []protoreflect.FileDescriptor, opts Options) (*ir.Table, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diag.NewCollector()
	}
	if opts.Registry == nil {
		reg, err := options.Load()
		if err != nil {
			return nil, fmt.Errorf("options.Load: %w", err)
		}
		opts.Registry = reg
	}

	var types []protoreflect.MessageDescriptor
	for _, f := range files {
		types = append(types, schema.Messages(f)...)
	}

	builders := make([]*ir.Builder, len(types))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, md := range types {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := discoverType(md, opts)
			if err != nil {
				return fmt.Errorf("discover %s: %w", md.FullName(), err)
			}
			builders[i] = b
			log.Debug("type discovered",
				zap.String("type", string(md.FullName())),
				zap.Int("views", b.Len()),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table, err := ir.Merge(builders...)
	if err != nil {
		return nil, fmt.Errorf("ir.Merge: %w", err)
	}
	log.Info("discovery finished",
		zap.Int("types", len(types)),
		zap.Int("views", table.Len()),
		zap.Int("errors", len(opts.Diagnostics.Errors())),
		zap.Int("warnings", len(opts.Diagnostics.Warnings())),
	)
	return table, nil
}

// discoverType последовательно обрабатывает поток событий одного типа
func discoverType(md protoreflect.MessageDescriptor, opts Options) (*ir.Builder, error) {
	s := &scanner{
		reg:     opts.Registry,
		diags:   opts.Diagnostics,
		legacy:  opts.Legacy,
		builder: ir.NewBuilder(schema.TypeOf(md)),
	}
	for _, ev := range Events(md) {
		s.handle(ev)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.builder, nil
}
