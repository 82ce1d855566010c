// Package compile компилирует .proto исходники без protoc (через protocompile)
// и собирает из них запрос плагина, чтобы CLI и тесты проходили тот же путь
// через protogen, что и protoc.
package compile

import (
	"context"
	"fmt"
	"sort"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/protoval/protoval/internal/options"
)

// Request описывает набор файлов для компиляции
type Request struct {
	// ImportPaths каталоги поиска импортов на диске
	ImportPaths []string
	// Sources исходники в памяти по путям импорта, имеют приоритет над диском
	Sources map[string]string
	// Files файлы, для которых генерируется код
	Files []string
	// Parameter строка параметров плагина (как --x_opt у protoc)
	Parameter string
}

// Compile компилирует файлы запроса вместе со встроенными protoval/options.proto
// и стандартными импортами protoc.
func Compile(ctx context.Context, req Request) (linker.Files, error) {
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no files to compile")
	}
	sources := options.Sources()
	for path, src := range req.Sources {
		sources[path] = src
	}
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(protocompile.CompositeResolver{
			&protocompile.SourceResolver{Accessor: protocompile.SourceAccessorFromMap(sources)},
			&protocompile.SourceResolver{ImportPaths: req.ImportPaths},
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	files, err := compiler.Compile(ctx, req.Files...)
	if err != nil {
		return nil, fmt.Errorf("compiler.Compile: %w", err)
	}
	return files, nil
}

// CodeGeneratorRequest собирает запрос плагина: все файлы и их зависимости
// в топологическом порядке, как это делает protoc.
func CodeGeneratorRequest(files []protoreflect.FileDescriptor, parameter string) *pluginpb.CodeGeneratorRequest {
	req := &pluginpb.CodeGeneratorRequest{}
	if parameter != "" {
		req.Parameter = proto.String(parameter)
	}
	seen := make(map[string]bool)
	var visit func(fd protoreflect.FileDescriptor)
	visit = func(fd protoreflect.FileDescriptor) {
		if seen[fd.Path()] {
			return
		}
		seen[fd.Path()] = true
		imports := fd.Imports()
		for i := 0; i < imports.Len(); i++ {
			visit(imports.Get(i).FileDescriptor)
		}
		req.ProtoFile = append(req.ProtoFile, protodesc.ToFileDescriptorProto(fd))
	}
	for _, fd := range files {
		visit(fd)
		req.FileToGenerate = append(req.FileToGenerate, fd.Path())
	}
	sort.Strings(req.FileToGenerate)
	return req
}

// Plugin компилирует файлы и создает protogen.Plugin, как если бы его запустил protoc
func Plugin(ctx context.Context, req Request, opts protogen.Options) (*protogen.Plugin, error) {
	files, err := Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	fds := make([]protoreflect.FileDescriptor, 0, len(files))
	for _, f := range files {
		fds = append(fds, f)
	}
	gen, err := opts.New(CodeGeneratorRequest(fds, req.Parameter))
	if err != nil {
		return nil, fmt.Errorf("protogen.Options.New: %w", err)
	}
	return gen, nil
}

// Files возвращает сгенерированные плагином файлы по именам
func Files(gen *protogen.Plugin) (map[string]string, error) {
	resp := gen.Response()
	if resp.Error != nil {
		return nil, fmt.Errorf("plugin: %s", resp.GetError())
	}
	out := make(map[string]string, len(resp.File))
	for _, f := range resp.File {
		out[f.GetName()] = f.GetContent()
	}
	return out, nil
}

// FileDescriptorSet возвращает набор дескрипторов для записи через --descriptor_set_out
func FileDescriptorSet(files []protoreflect.FileDescriptor) *descriptorpb.FileDescriptorSet {
	return &descriptorpb.FileDescriptorSet{File: CodeGeneratorRequest(files, "").ProtoFile}
}
