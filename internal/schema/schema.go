// Package schema содержит идентификаторы элементов схемы (типов, полей, oneof)
// и вспомогательные функции поверх protoreflect-дескрипторов.
//
// Граф дескрипторов считается неизменяемым входом: пакет ничего не создает
// и не модифицирует, только классифицирует.
package schema

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	anyFullName       protoreflect.FullName = "google.protobuf.Any"
	timestampFullName protoreflect.FullName = "google.protobuf.Timestamp"
)

// TypeRef стабильная идентичность типа сообщения
type TypeRef struct {
	name protoreflect.FullName
}

// TypeOf возвращает идентичность типа сообщения
func TypeOf(md protoreflect.MessageDescriptor) TypeRef {
	return TypeRef{name: md.FullName()}
}

// Name возвращает полное имя типа
func (r TypeRef) Name() protoreflect.FullName { return r.name }

func (r TypeRef) String() string { return string(r.name) }

// FieldRef стабильная идентичность поля
type FieldRef struct {
	name protoreflect.FullName
}

// FieldOf возвращает идентичность поля
func FieldOf(fd protoreflect.FieldDescriptor) FieldRef {
	return FieldRef{name: fd.FullName()}
}

// Name возвращает полное имя поля (pkg.Message.field)
func (r FieldRef) Name() protoreflect.FullName { return r.name }

func (r FieldRef) String() string { return string(r.name) }

// OneofRef стабильная идентичность группы oneof
type OneofRef struct {
	name protoreflect.FullName
}

// OneofOf возвращает идентичность группы oneof
func OneofOf(od protoreflect.OneofDescriptor) OneofRef {
	return OneofRef{name: od.FullName()}
}

// Name возвращает полное имя группы
func (r OneofRef) Name() protoreflect.FullName { return r.name }

func (r OneofRef) String() string { return string(r.name) }

// Span позиция элемента схемы в исходном файле (строки и колонки с единицы).
// Нулевые Line/Column означают, что позиция неизвестна.
type Span struct {
	File   string
	Line   int
	Column int
}

func (s Span) String() string {
	if s.Line == 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Less задает детерминированный порядок позиций
func (s Span) Less(o Span) bool {
	if s.File != o.File {
		return s.File < o.File
	}
	if s.Line != o.Line {
		return s.Line < o.Line
	}
	return s.Column < o.Column
}

// SpanOf извлекает позицию дескриптора из SourceCodeInfo файла
func SpanOf(d protoreflect.Descriptor) Span {
	file := d.ParentFile()
	if file == nil {
		return Span{}
	}
	span := Span{File: file.Path()}
	loc := file.SourceLocations().ByDescriptor(d)
	if loc.Path == nil {
		return span
	}
	span.Line = loc.StartLine + 1
	span.Column = loc.StartColumn + 1
	return span
}

// Shape форма поля: одиночное значение, список или map
type Shape int

const (
	Singular Shape = iota
	Repeated
	Map
)

func (s Shape) String() string {
	switch s {
	case Repeated:
		return "repeated"
	case Map:
		return "map"
	default:
		return "singular"
	}
}

// ShapeOf определяет форму поля
func ShapeOf(fd protoreflect.FieldDescriptor) Shape {
	switch {
	case fd.IsMap():
		return Map
	case fd.IsList():
		return Repeated
	default:
		return Singular
	}
}

// Element возвращает дескриптор элемента: значение map или само поле
func Element(fd protoreflect.FieldDescriptor) protoreflect.FieldDescriptor {
	if fd.IsMap() {
		return fd.MapValue()
	}
	return fd
}

// IsMessage сообщает, что элемент поля является сообщением
func IsMessage(fd protoreflect.FieldDescriptor) bool {
	k := Element(fd).Kind()
	return k == protoreflect.MessageKind || k == protoreflect.GroupKind
}

// IsAny сообщает, что элемент поля имеет тип google.protobuf.Any
func IsAny(fd protoreflect.FieldDescriptor) bool {
	return IsMessage(fd) && Element(fd).Message().FullName() == anyFullName
}

// IsTimestamp сообщает, что элемент поля имеет тип google.protobuf.Timestamp
func IsTimestamp(fd protoreflect.FieldDescriptor) bool {
	return IsMessage(fd) && Element(fd).Message().FullName() == timestampFullName
}

// InRealOneof сообщает, что поле входит в настоящую (не синтетическую) группу oneof
func InRealOneof(fd protoreflect.FieldDescriptor) bool {
	od := fd.ContainingOneof()
	return od != nil && !od.IsSynthetic()
}

// TypeName возвращает имя типа элемента поля для сообщений об ошибках:
// полное имя для сообщений и перечислений, имя вида для скаляров.
func TypeName(fd protoreflect.FieldDescriptor) string {
	el := Element(fd)
	switch el.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return string(el.Message().FullName())
	case protoreflect.EnumKind:
		return string(el.Enum().FullName())
	default:
		return el.Kind().String()
	}
}

// Messages обходит все сообщения файла (включая вложенные) в порядке объявления,
// пропуская синтетические map entry типы.
func Messages(fd protoreflect.FileDescriptor) []protoreflect.MessageDescriptor {
	var out []protoreflect.MessageDescriptor
	var walk func(msgs protoreflect.MessageDescriptors)
	walk = func(msgs protoreflect.MessageDescriptors) {
		for i := 0; i < msgs.Len(); i++ {
			md := msgs.Get(i)
			if md.IsMapEntry() {
				continue
			}
			out = append(out, md)
			walk(md.Messages())
		}
	}
	walk(fd.Messages())
	return out
}
