// Package ir содержит промежуточное представление ограничений: по одному
// представлению (view) на пару (субъект, вид опции).
//
// Представления создаются один раз на этапе обнаружения через Builder и
// только читаются на этапе генерации через Table.
package ir

import (
	"fmt"
	"regexp"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/numeric"
	"github.com/protoval/protoval/internal/options"
	"github.com/protoval/protoval/internal/schema"
)

// Kind вид опции. Порядок констант задает порядок проверок внутри одного субъекта.
type Kind int

const (
	Required Kind = iota + 1
	Min
	Max
	Range
	Pattern
	Goes
	When
	Validate
	Choice
	Require
)

func (k Kind) String() string {
	switch k {
	case Required:
		return "required"
	case Min:
		return "min"
	case Max:
		return "max"
	case Range:
		return "range"
	case Pattern:
		return "pattern"
	case Goes:
		return "goes"
	case When:
		return "when"
	case Validate:
		return "validate"
	case Choice:
		return "choice"
	case Require:
		return "require"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Kinds все виды опций в порядке проверок
var Kinds = []Kind{Required, Min, Max, Range, Pattern, Goes, When, Validate, Choice, Require}

// Subject ключ субъекта опции: поле, oneof или тип
type Subject struct {
	Name protoreflect.FullName
	// Order порядковый номер субъекта в объявлении типа: поля и oneof по
	// порядку появления, тип в конце
	Order int
}

func (s Subject) String() string { return string(s.Name) }

// View материализованное представление опции
type View interface {
	Base() *Meta
}

// Meta общие атрибуты представления
type Meta struct {
	Kind    Kind
	Subject Subject
	Type    schema.TypeRef
	Span    schema.Span
	// Template текст шаблона сообщения об ошибке, проверенный на допустимые подстановки
	Template string
}

// Base возвращает общие атрибуты
func (m *Meta) Base() *Meta { return m }

// Bound граница min/max: литерал или ссылка на соседнее поле того же вида
type Bound struct {
	Value numeric.Bound
	// Field заполнено, если граница берется из другого поля сообщения
	Field protoreflect.FieldDescriptor
}

// Operator возвращает оператор сравнения для текста сообщения
func (b Bound) Operator(lower bool) string {
	exclusive := b.Value.Exclusive()
	switch {
	case lower && exclusive:
		return ">"
	case lower:
		return ">="
	case exclusive:
		return "<"
	default:
		return "<="
	}
}

// MinField нижняя граница числового поля
type MinField struct {
	Meta
	Field  protoreflect.FieldDescriptor
	Number numeric.Kind
	Bound  Bound
}

// MaxField верхняя граница числового поля
type MaxField struct {
	Meta
	Field  protoreflect.FieldDescriptor
	Number numeric.Kind
	Bound  Bound
}

// RangeField диапазон числового поля. Lower строго меньше Upper.
type RangeField struct {
	Meta
	Field   protoreflect.FieldDescriptor
	Number  numeric.Kind
	Lower   numeric.Bound
	Upper   numeric.Bound
	Literal string
}

// GoesField зависимость поля от компаньона
type GoesField struct {
	Meta
	Field     protoreflect.FieldDescriptor
	Companion protoreflect.FieldDescriptor
	// Mutual компаньон в свою очередь ссылается на это поле
	Mutual bool
}

// PatternField регулярное выражение строкового поля
type PatternField struct {
	Meta
	Field    protoreflect.FieldDescriptor
	Regex    string
	Modifier options.Modifier
	// Compiled выражение с примененными флагами и якорями, как его увидит regexp
	Compiled *regexp.Regexp
}

// Expr возвращает исходный текст выражения с флагами и якорями
func (p *PatternField) Expr() string { return p.Compiled.String() }

// ModifierString печатает включенные флаги для текста сообщения
func (p *PatternField) ModifierString() string {
	var out []byte
	add := func(on bool, name string) {
		if !on {
			return
		}
		if len(out) > 0 {
			out = append(out, ", "...)
		}
		out = append(out, name...)
	}
	add(p.Modifier.DotAll, "dot_all")
	add(p.Modifier.CaseInsensitive, "case_insensitive")
	add(p.Modifier.Multiline, "multiline")
	add(p.Modifier.PartialMatch, "partial_match")
	return string(out)
}

// RequiredField поле должно отличаться от значения по умолчанию
type RequiredField struct {
	Meta
	Field protoreflect.FieldDescriptor
}

// ValidateField рекурсивная проверка вложенных сообщений
type ValidateField struct {
	Meta
	Field protoreflect.FieldDescriptor
	// Wrap заворачивает нарушения вложенного сообщения в одно нарушение поля
	Wrap bool
}

// WhenField временное ограничение
type WhenField struct {
	Meta
	Field protoreflect.FieldDescriptor
	In    options.Time
}

// ChoiceOneof в группе oneof должно быть выбрано одно поле
type ChoiceOneof struct {
	Meta
	Oneof protoreflect.OneofDescriptor
}

// RequireType хотя бы одна группа полей сообщения должна быть полностью задана
type RequireType struct {
	Meta
	Message protoreflect.MessageDescriptor
	// Expr исходное выражение
	Expr string
	// Groups альтернативы, каждая из одного или нескольких полей
	Groups [][]protoreflect.FieldDescriptor
}

var (
	_ View = (*MinField)(nil)
	_ View = (*MaxField)(nil)
	_ View = (*RangeField)(nil)
	_ View = (*GoesField)(nil)
	_ View = (*PatternField)(nil)
	_ View = (*RequiredField)(nil)
	_ View = (*ValidateField)(nil)
	_ View = (*WhenField)(nil)
	_ View = (*ChoiceOneof)(nil)
	_ View = (*RequireType)(nil)
)
