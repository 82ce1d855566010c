// Package sink собирает тела сгенерированных Go типов для одного .proto файла.
//
// Сообщение protobuf и его строитель рассматриваются как классы: в класс
// можно добавить объявление, вставить оператор перед оператором-якорем
// существующего метода и пометить метод директивой. Render выводит файл,
// отформатированный go/format.
package sink

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"
)

// BuildReturn последний оператор метода Build строителя
const BuildReturn = "return b.msg, nil"

// Методы строителя, которые создает DeclareMessage
const (
	MethodBuild        = "Build"
	MethodBuildPartial = "BuildPartial"
)

// ClassRef ссылка на класс: Go тип сообщения или его строитель
type ClassRef struct {
	Type    string
	Builder bool
}

func (c ClassRef) String() string {
	if c.Builder {
		return c.Type + " builder"
	}
	return c.Type
}

// Sink приемник сгенерированного кода
type Sink interface {
	// AppendDecl добавляет объявление уровня пакета, относящееся к классу
	AppendDecl(class ClassRef, decl string) error
	// InsertBefore вставляет оператор перед оператором anchor в теле метода
	InsertBefore(class ClassRef, method, anchor, stmt string) error
	// AnnotateReturn помечает возвращаемое значение метода директивой
	AnnotateReturn(class ClassRef, method, annotation string) error
}

// method метод с изменяемым телом
type method struct {
	name       string
	doc        []string
	signature  string
	body       []string
	directives []string
}

func (m *method) render(buf *bytes.Buffer) {
	for _, line := range m.doc {
		buf.WriteString("// " + line + "\n")
	}
	if len(m.doc) > 0 && len(m.directives) > 0 {
		buf.WriteString("//\n")
	}
	for _, d := range m.directives {
		buf.WriteString(d + "\n")
	}
	buf.WriteString("func " + m.signature + " {\n")
	for _, stmt := range m.body {
		buf.WriteString(stmt + "\n")
	}
	buf.WriteString("}\n\n")
}

// member объявление класса: готовый текст или метод
type member struct {
	text   string
	method *method
}

type class struct {
	members []member
}

func (c *class) find(name string) *method {
	for _, m := range c.members {
		if m.method != nil && m.method.name == name {
			return m.method
		}
	}
	return nil
}

// Options параметры файла
type Options struct {
	// Package имя Go пакета
	Package string
	// Source путь исходного .proto файла для заголовка
	Source string
	// Generator имя генератора для заголовка
	Generator string
	// BuilderSuffix суффикс имени строителя
	BuilderSuffix string
	// Qualify квалифицирует импортируемые идентификаторы, обычно
	// protogen.GeneratedFile.QualifiedGoIdent
	Qualify func(protogen.GoIdent) string
}

// File Go файл из классов в порядке объявления
type File struct {
	opts    Options
	classes map[ClassRef]*class
	order   []ClassRef
}

var _ Sink = (*File)(nil)

// NewFile создает пустой файл
func NewFile(opts Options) *File {
	if opts.BuilderSuffix == "" {
		opts.BuilderSuffix = "Builder"
	}
	if opts.Generator == "" {
		opts.Generator = "protoc-gen-protoval"
	}
	return &File{opts: opts, classes: make(map[ClassRef]*class)}
}

// BuilderName возвращает имя строителя для Go типа сообщения
func (f *File) BuilderName(goType string) string { return goType + f.opts.BuilderSuffix }

func (f *File) class(ref ClassRef) (*class, error) {
	c, ok := f.classes[ref]
	if !ok {
		return nil, fmt.Errorf("class %s is not declared", ref)
	}
	return c, nil
}

func (f *File) add(ref ClassRef) *class {
	if c, ok := f.classes[ref]; ok {
		return c
	}
	c := &class{}
	f.classes[ref] = c
	f.order = append(f.order, ref)
	return c
}

// DeclareMessage объявляет класс сообщения и, если withBuilder, класс
// строителя с конструктором и методами Build и BuildPartial.
// Повторное объявление ничего не меняет.
func (f *File) DeclareMessage(msg protogen.GoIdent, withBuilder bool) {
	ref := ClassRef{Type: msg.GoName}
	_, exists := f.classes[ref]
	f.add(ref)
	if exists || !withBuilder {
		return
	}

	name := msg.GoName
	builder := f.BuilderName(name)
	b := f.add(ClassRef{Type: name, Builder: true})
	b.members = append(b.members,
		member{text: fmt.Sprintf("// %s assembles a %s that is validated on Build.\ntype %s struct {\n\tmsg *%s\n}\n", builder, name, builder, name)},
		member{method: &method{
			name:      "New" + builder,
			doc:       []string{fmt.Sprintf("New%s returns a builder for an empty %s.", builder, name)},
			signature: fmt.Sprintf("New%s() *%s", builder, builder),
			body:      []string{fmt.Sprintf("return &%s{msg: &%s{}}", builder, name)},
		}},
		member{method: &method{
			name:      "ToBuilder",
			doc:       []string{"ToBuilder returns a builder initialized with a copy of m."},
			signature: fmt.Sprintf("(m *%s) ToBuilder() *%s", name, builder),
			body: []string{
				fmt.Sprintf("if m == nil {\nreturn New%s()\n}", builder),
				fmt.Sprintf("return &%s{msg: %s(m).(*%s)}", builder, f.qualify(protogen.GoImportPath("google.golang.org/protobuf/proto").Ident("Clone")), name),
			},
		}},
		member{method: &method{
			name:      "Mutate",
			doc:       []string{"Mutate applies fn to the message under construction."},
			signature: fmt.Sprintf("(b *%s) Mutate(fn func(*%s)) *%s", builder, name, builder),
			body:      []string{"fn(b.msg)", "return b"},
		}},
		member{method: &method{
			name:      MethodBuild,
			doc:       []string{fmt.Sprintf("Build returns the %s or the violations found in it.", name)},
			signature: fmt.Sprintf("(b *%s) Build() (*%s, error)", builder, name),
			body:      []string{BuildReturn},
		}},
		member{method: &method{
			name:      MethodBuildPartial,
			doc:       []string{fmt.Sprintf("BuildPartial returns the %s without validation.", name)},
			signature: fmt.Sprintf("(b *%s) BuildPartial() *%s", builder, name),
			body:      []string{"return b.msg"},
		}},
	)
}

func (f *File) qualify(id protogen.GoIdent) string {
	if f.opts.Qualify != nil {
		return f.opts.Qualify(id)
	}
	parts := strings.Split(string(id.GoImportPath), "/")
	return parts[len(parts)-1] + "." + id.GoName
}

// AppendDecl добавляет объявление в конец класса
func (f *File) AppendDecl(ref ClassRef, decl string) error {
	c, err := f.class(ref)
	if err != nil {
		return err
	}
	c.members = append(c.members, member{text: strings.TrimSpace(decl) + "\n"})
	return nil
}

// InsertBefore вставляет stmt перед первым оператором метода, совпадающим с anchor
func (f *File) InsertBefore(ref ClassRef, name, anchor, stmt string) error {
	c, err := f.class(ref)
	if err != nil {
		return err
	}
	m := c.find(name)
	if m == nil {
		return fmt.Errorf("method %s not found in %s", name, ref)
	}
	for i, s := range m.body {
		if strings.TrimSpace(s) != anchor {
			continue
		}
		m.body = append(m.body[:i], append([]string{stmt}, m.body[i:]...)...)
		return nil
	}
	return fmt.Errorf("statement %q not found in %s.%s", anchor, ref, name)
}

// AnnotateReturn добавляет методу директиву вида //protoval:unvalidated
func (f *File) AnnotateReturn(ref ClassRef, name, annotation string) error {
	c, err := f.class(ref)
	if err != nil {
		return err
	}
	m := c.find(name)
	if m == nil {
		return fmt.Errorf("method %s not found in %s", name, ref)
	}
	for _, d := range m.directives {
		if d == annotation {
			return nil
		}
	}
	m.directives = append(m.directives, annotation)
	return nil
}

// Empty сообщает, что в файле нет объявлений
func (f *File) Empty() bool {
	for _, c := range f.classes {
		if len(c.members) > 0 {
			return false
		}
	}
	return true
}

// Render выводит исходный текст файла. Классы идут в порядке объявления,
// строитель сразу после своего сообщения.
func (f *File) Render() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by %s. DO NOT EDIT.\n", f.opts.Generator)
	if f.opts.Source != "" {
		fmt.Fprintf(&buf, "// source: %s\n", f.opts.Source)
	}
	fmt.Fprintf(&buf, "\npackage %s\n\n", f.opts.Package)

	for _, ref := range f.ordered() {
		for _, m := range f.classes[ref].members {
			if m.method != nil {
				m.method.render(&buf)
				continue
			}
			buf.WriteString(m.text + "\n")
		}
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format.Source: %w\n%s", err, buf.String())
	}
	return formatted, nil
}

// ordered возвращает классы так, что строитель следует за своим сообщением
func (f *File) ordered() []ClassRef {
	out := make([]ClassRef, 0, len(f.order))
	for _, ref := range f.order {
		if ref.Builder {
			continue
		}
		out = append(out, ref)
		b := ClassRef{Type: ref.Type, Builder: true}
		if _, ok := f.classes[b]; ok {
			out = append(out, b)
		}
	}
	return out
}
