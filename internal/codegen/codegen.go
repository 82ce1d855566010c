// Package codegen превращает представления ir в фрагменты Go кода проверок.
//
// На каждый вид опции приходится один Generator, выбираемый через For.
// Фрагмент проверяет поле сообщения-получателя m и записывает нарушения в
// явно переданный накопитель acc. Вспомогательные объявления уровня пакета
// (например, скомпилированные регулярные выражения) возвращаются в Decls.
package codegen

import (
	"fmt"
	"path"
	"sync"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/ir"
)

// ValidatePackage пакет среды выполнения, который импортирует сгенерированный код
const ValidatePackage = protogen.GoImportPath("github.com/protoval/protoval/pkg/validate")

// Имена, которые фрагменты используют в теле ValidateAt
const (
	Receiver    = "m"
	Accumulator = "acc"
)

// Runtime квалифицирует идентификаторы импортируемых пакетов.
// Квалификация выполняется лениво и запоминается; генераторы разных типов
// вызывают Runtime параллельно, поэтому доступ к qualify защищен мьютексом.
type Runtime struct {
	mu      sync.Mutex
	qualify func(protogen.GoIdent) string
	cache   map[protogen.GoIdent]string
}

// NewRuntime создает Runtime поверх функции квалификации, обычно
// protogen.GeneratedFile.QualifiedGoIdent. nil квалифицирует последним
// элементом пути импорта.
func NewRuntime(qualify func(protogen.GoIdent) string) *Runtime {
	if qualify == nil {
		qualify = func(id protogen.GoIdent) string {
			return path.Base(string(id.GoImportPath)) + "." + id.GoName
		}
	}
	return &Runtime{qualify: qualify, cache: make(map[protogen.GoIdent]string)}
}

// Ident возвращает квалифицированное имя идентификатора
func (r *Runtime) Ident(id protogen.GoIdent) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.cache[id]; ok {
		return s
	}
	s := r.qualify(id)
	r.cache[id] = s
	return s
}

// Validate возвращает квалифицированное имя из пакета среды выполнения
func (r *Runtime) Validate(name string) string {
	return r.Ident(ValidatePackage.Ident(name))
}

// Context сообщение, для которого генерируются фрагменты
type Context struct {
	Runtime *Runtime
	Message *protogen.Message
}

// Field находит protogen поле сообщения по дескриптору
func (c *Context) Field(fd protoreflect.FieldDescriptor) (*protogen.Field, error) {
	for _, f := range c.Message.Fields {
		if f.Desc.FullName() == fd.FullName() {
			return f, nil
		}
	}
	return nil, fmt.Errorf("field %s not found in %s", fd.FullName(), c.Message.Desc.FullName())
}

// Oneof находит protogen группу oneof сообщения по дескриптору
func (c *Context) Oneof(od protoreflect.OneofDescriptor) (*protogen.Oneof, error) {
	for _, o := range c.Message.Oneofs {
		if o.Desc.FullName() == od.FullName() {
			return o, nil
		}
	}
	return nil, fmt.Errorf("oneof %s not found in %s", od.FullName(), c.Message.Desc.FullName())
}

// Fragment результат генерации для одного представления
type Fragment struct {
	Kind    ir.Kind
	Subject ir.Subject
	// Code операторы тела ValidateAt. Пустой код означает, что проверка не нужна.
	Code string
	// Decls объявления уровня пакета, используемые в Code
	Decls []string
}

// Generator генерирует фрагмент для представления одного вида опции
type Generator interface {
	Generate(ctx *Context, view ir.View) (Fragment, error)
}

var generators = map[ir.Kind]Generator{
	ir.Required: requiredGenerator{},
	ir.Min:      minGenerator{},
	ir.Max:      maxGenerator{},
	ir.Range:    rangeGenerator{},
	ir.Pattern:  patternGenerator{},
	ir.Goes:     goesGenerator{},
	ir.When:     whenGenerator{},
	ir.Validate: validateGenerator{},
	ir.Choice:   choiceGenerator{},
	ir.Require:  requireGenerator{},
}

// For возвращает генератор вида опции
func For(kind ir.Kind) (Generator, error) {
	g, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("no generator for option %s", kind)
	}
	return g, nil
}

// Generate выбирает генератор по виду представления и генерирует фрагмент
func Generate(ctx *Context, view ir.View) (Fragment, error) {
	g, err := For(view.Base().Kind)
	if err != nil {
		return Fragment{}, err
	}
	return g.Generate(ctx, view)
}

// TemplateError шаблон сообщения содержит подстановку без выражения
type TemplateError struct {
	View ir.View
	Err  error
}

func (e *TemplateError) Error() string {
	m := e.View.Base()
	return fmt.Sprintf("option %s on %s: %v", m.Kind, m.Subject, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }
